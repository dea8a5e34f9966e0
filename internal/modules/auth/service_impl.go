package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	issuer *Issuer
	audit  audit.Repository
	now    func() time.Time
	log    *zap.Logger
}

// NewService creates a new auth service.
func NewService(issuer *Issuer, auditRepo audit.Repository, log *zap.Logger) Service {
	return &service{issuer: issuer, audit: auditRepo, now: time.Now, log: log}
}

// Login accepts the known operator accounts with any password of at least
// four characters. There is no credential store.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := httpx.Required(httpx.F("userId", req.UserID), httpx.F("password", req.Password)); err != nil {
		return nil, err
	}
	role, ok := user.Lookup(req.UserID)
	if !ok {
		s.log.Info("login rejected", zap.String("user", req.UserID), zap.String("reason", "unknown user"))
		return nil, errUnknownUser()
	}
	if len(req.Password) < minPasswordLength {
		s.log.Info("login rejected", zap.String("user", req.UserID), zap.String("reason", "password"))
		return nil, errBadPassword()
	}

	perms := user.Permissions(role)
	token, expires, err := s.issuer.Issue(req.UserID, role, perms)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC()
	ip := req.IPAddress
	if ip == "" {
		ip = "unknown"
	}
	raw, err := json.Marshal(map[string]any{
		"userId":    req.UserID,
		"loginTime": now,
		"ipAddress": ip,
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("marshal audit changes: %w", err))
	}
	if err := s.audit.Insert(ctx, &audit.Entry{
		ID:        uuid.New(),
		Action:    audit.ActionUserLogin,
		Entity:    "User",
		EntityID:  req.UserID,
		UserID:    req.UserID,
		Changes:   raw,
		CreatedAt: now,
	}); err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info("login", zap.String("user", req.UserID), zap.String("role", string(role)))
	return &LoginResult{
		UserID:      req.UserID,
		Role:        role,
		Token:       token,
		ExpiresAt:   expires.UTC(),
		Permissions: perms,
		LoginTime:   now,
		Message:     "로그인 성공",
	}, nil
}

func errUnknownUser() *apperr.Error {
	e := apperr.Unauthorized("user does not exist")
	e.MessageID = "UnknownUser"
	return e
}

func errBadPassword() *apperr.Error {
	e := apperr.Unauthorized("incorrect password")
	e.MessageID = "InvalidPassword"
	return e
}

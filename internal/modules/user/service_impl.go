package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultActivityLimit = 50
	lifecycleScan        = 1000
)

var lifecycleActions = []string{audit.ActionUserCreate, audit.ActionUserDelete, audit.ActionPermissionsUpdate}

type service struct {
	audit audit.Repository
	now   func() time.Time
	log   *zap.Logger
}

// NewService creates a new user service backed by the audit trail.
func NewService(auditRepo audit.Repository, log *zap.Logger) Service {
	return &service{audit: auditRepo, now: time.Now, log: log}
}

func (s *service) record(ctx context.Context, action, userID, actor string, changes any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return apperr.Internal(fmt.Errorf("marshal audit changes: %w", err))
	}
	e := &audit.Entry{
		ID:        uuid.New(),
		Action:    action,
		Entity:    entityUser,
		EntityID:  userID,
		UserID:    actor,
		Changes:   raw,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Insert(ctx, e); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context) (*ListResult, error) {
	summaries, err := s.audit.GroupByUser(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	lifecycle, err := s.audit.List(ctx, audit.Filter{Actions: lifecycleActions, Entity: entityUser, Limit: lifecycleScan})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	users := directory(summaries, lifecycle)
	return &ListResult{Total: len(users), Users: users}, nil
}

type lifecycleChanges struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// directory merges per-actor activity with account lifecycle rows, which must be
// newest first. The newest create or delete decides whether an account is active.
func directory(summaries []*audit.UserSummary, lifecycle []*audit.Entry) []*User {
	byID := make(map[string]*User)
	var users []*User
	get := func(id string) *User {
		u, ok := byID[id]
		if !ok {
			u = &User{UserID: id, Role: RoleOf(id), IsActive: true}
			byID[id] = u
			users = append(users, u)
		}
		return u
	}
	for _, sm := range summaries {
		u := get(sm.UserID)
		u.ActivityCount = sm.ActionCount
		first, last := sm.FirstActivity, sm.LastActivity
		u.FirstActivity, u.LastActivity = &first, &last
	}

	settled := map[string]bool{}
	roled := map[string]bool{}
	for _, e := range lifecycle {
		u := get(e.EntityID)
		var ch lifecycleChanges
		_ = json.Unmarshal(e.Changes, &ch)
		switch e.Action {
		case audit.ActionUserCreate, audit.ActionUserDelete:
			if settled[u.UserID] {
				continue
			}
			settled[u.UserID] = true
			u.IsActive = e.Action == audit.ActionUserCreate
			if e.Action == audit.ActionUserCreate {
				u.Username, u.Email = ch.Username, ch.Email
			}
		}
		if ch.Role != "" && !roled[u.UserID] {
			roled[u.UserID] = true
			u.Role = ch.Role
		}
	}
	if users == nil {
		users = []*User{}
	}
	return users
}

func (s *service) CreateUser(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := httpx.Required(
		httpx.F("userId", req.UserID),
		httpx.F("username", req.Username),
		httpx.F("email", req.Email),
		httpx.F("role", req.Role),
		httpx.F("createdBy", req.CreatedBy),
	); err != nil {
		return nil, err
	}
	if !slices.Contains(ValidRoles, req.Role) {
		return nil, apperr.InvalidValue("role", ValidRoles)
	}
	perms := req.Permissions
	if perms == nil {
		perms = Permissions(Role(req.Role))
	}
	res := &CreateResult{
		UserID:      req.UserID,
		Username:    req.Username,
		Email:       req.Email,
		Role:        Role(req.Role),
		Permissions: perms,
		IsActive:    true,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.record(ctx, audit.ActionUserCreate, req.UserID, req.CreatedBy, map[string]any{
		"userId":      res.UserID,
		"username":    res.Username,
		"email":       res.Email,
		"role":        res.Role,
		"permissions": perms,
	}); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("user", req.UserID), zap.String("role", req.Role), zap.String("by", req.CreatedBy))
	return res, nil
}

func (s *service) UpdateUser(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	if err := httpx.Required(
		httpx.F("userId", req.UserID),
		httpx.F("updates", req.Updates),
		httpx.F("updatedBy", req.UpdatedBy),
	); err != nil {
		return nil, err
	}
	if role, ok := req.Updates["role"]; ok {
		r, isString := role.(string)
		if !isString || !slices.Contains(ValidRoles, r) {
			return nil, apperr.InvalidValue("role", ValidRoles)
		}
	}
	res := &UpdateResult{UserID: req.UserID, Updates: req.Updates, UpdatedBy: req.UpdatedBy, UpdatedAt: s.now().UTC()}
	if err := s.record(ctx, audit.ActionUserUpdate, req.UserID, req.UpdatedBy, map[string]any{
		"userId":  req.UserID,
		"updates": req.Updates,
	}); err != nil {
		return nil, err
	}
	s.log.Info("user updated", zap.String("user", req.UserID), zap.String("by", req.UpdatedBy))
	return res, nil
}

func (s *service) DeleteUser(ctx context.Context, userID, deletedBy string) (*DeleteResult, error) {
	if err := httpx.Required(httpx.F("userId", userID), httpx.F("deletedBy", deletedBy)); err != nil {
		return nil, err
	}
	res := &DeleteResult{UserID: userID, DeletedBy: deletedBy, DeletedAt: s.now().UTC()}
	if err := s.record(ctx, audit.ActionUserDelete, userID, deletedBy, map[string]any{"userId": userID}); err != nil {
		return nil, err
	}
	s.log.Info("user deleted", zap.String("user", userID), zap.String("by", deletedBy))
	return res, nil
}

func (s *service) GetPermissions(ctx context.Context, userID string) (*PermissionSet, error) {
	if err := httpx.Required(httpx.F("userId", userID)); err != nil {
		return nil, err
	}
	e, err := s.audit.Latest(ctx, audit.ActionPermissionsUpdate, userID)
	if errors.Is(err, sql.ErrNoRows) {
		role := RoleOf(userID)
		return &PermissionSet{UserID: userID, Role: role, Permissions: Permissions(role)}, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var ch struct {
		Role        Role     `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(e.Changes, &ch); err != nil {
		return nil, apperr.Internal(fmt.Errorf("decode permissions entry: %w", err))
	}
	set := &PermissionSet{
		UserID:      userID,
		Role:        ch.Role,
		Permissions: ch.Permissions,
		UpdatedBy:   e.UserID,
		UpdatedAt:   &e.CreatedAt,
	}
	if set.Role == "" {
		set.Role = RoleWorker
	}
	if set.Permissions == nil {
		set.Permissions = []string{}
	}
	return set, nil
}

func (s *service) UpdatePermissions(ctx context.Context, req PermissionsRequest) (*PermissionSet, error) {
	if err := httpx.Required(httpx.F("userId", req.UserID), httpx.F("updatedBy", req.UpdatedBy)); err != nil {
		return nil, err
	}
	if req.Role != "" && !slices.Contains(ValidRoles, req.Role) {
		return nil, apperr.InvalidValue("role", ValidRoles)
	}
	if req.Role == "" && req.Permissions == nil {
		return nil, apperr.MissingFields("role", "permissions")
	}
	role := Role(req.Role)
	if role == "" {
		role = RoleCustom
	}
	perms := req.Permissions
	if perms == nil {
		perms = Permissions(role)
	}
	now := s.now().UTC()
	if err := s.record(ctx, audit.ActionPermissionsUpdate, req.UserID, req.UpdatedBy, map[string]any{
		"userId":      req.UserID,
		"role":        role,
		"permissions": perms,
	}); err != nil {
		return nil, err
	}
	s.log.Info("permissions updated", zap.String("user", req.UserID), zap.String("role", string(role)))
	return &PermissionSet{UserID: req.UserID, Role: role, Permissions: perms, UpdatedBy: req.UpdatedBy, UpdatedAt: &now}, nil
}

func (s *service) Activity(ctx context.Context, f ActivityFilter) (*ActivityResult, error) {
	if f.Limit <= 0 {
		f.Limit = defaultActivityLimit
	}
	af := audit.Filter{UserID: f.UserID, From: f.From, To: f.To, Limit: f.Limit}
	if f.Action != "" {
		af.Actions = []string{f.Action}
	}
	entries, err := s.audit.List(ctx, af)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	res := &ActivityResult{
		Filters: ActivityFilters{
			UserID:    orAll(f.UserID),
			Action:    orAll(f.Action),
			DateRange: DateRange{Start: f.From, End: f.To},
		},
		Stats: ActivityStats{
			TotalActivities: len(entries),
			ByAction:        map[string]int{},
			ByEntity:        map[string]int{},
		},
		Activities: entries,
	}
	for _, e := range entries {
		res.Stats.ByAction[e.Action]++
		res.Stats.ByEntity[e.Entity]++
	}
	if res.Activities == nil {
		res.Activities = []*audit.Entry{}
	}
	return res, nil
}

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

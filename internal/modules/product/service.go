package product

import (
	"context"
	"strings"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, f ListFilter) ([]*Product, int, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
}

type service struct {
	repo Repository
}

// NewService creates a new product service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// ErrNotFound is returned for unknown product ids.
func ErrNotFound() *apperr.Error {
	e := apperr.NotFound("ProductNotFound", "product not found")
	e.Code = apperr.CodeInventoryNotFound
	return e
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.SKU = strings.TrimSpace(req.SKU)
	if err := httpx.Required(
		httpx.F("code", req.Code),
		httpx.F("name", req.Name),
		httpx.F("sku", req.SKU),
	); err != nil {
		return nil, err
	}
	if strings.ContainsAny(req.SKU, " \t") {
		e := apperr.Invalid("InvalidValue", "invalid sku").With("field", "sku")
		e.Code = apperr.CodeInvalidSKU
		return nil, e
	}
	if req.Price.IsNegative() {
		return nil, apperr.Invalid("InvalidValue", "price must not be negative").With("field", "price")
	}

	p := &Product{
		ID:       uuid.New(),
		Code:     req.Code,
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    req.Price,
		IsActive: true,
	}
	if req.Barcode != "" {
		p.Barcode = &req.Barcode
	}
	if req.Weight != nil {
		p.Weight = decimal.NewNullDecimal(*req.Weight)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Duplicate", "product code or sku already exists")
		}
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromRepo(err, ErrNotFound())
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, f ListFilter) ([]*Product, int, error) {
	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return products, total, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Barcode != nil {
		p.Barcode = req.Barcode
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperr.Invalid("InvalidValue", "price must not be negative").With("field", "price")
		}
		p.Price = *req.Price
	}
	if req.Weight != nil {
		p.Weight = decimal.NewNullDecimal(*req.Weight)
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.FromRepo(err, ErrNotFound())
	}
	return p, nil
}

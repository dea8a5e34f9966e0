package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const productColumns = `id, code, name, sku, barcode, price, weight, is_active, created_at, updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO products (id, code, name, sku, barcode, price, weight, is_active)
		VALUES (:id, :code, :name, :sku, :barcode, :price, :weight, :is_active)`, p)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	return Get(ctx, r.db, uid)
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*Product, error) {
	p := &Product{}
	err := r.db.GetContext(ctx, p, `SELECT `+productColumns+` FROM products WHERE code=$1`, code)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Product, int, error) {
	var conds []string
	var args []any
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if f.Search != "" {
		conds = append(conds, "(name ILIKE ? OR code ILIKE ? OR sku ILIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM products`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY code LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	var products []*Product
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE products SET name=:name, barcode=:barcode, price=:price, weight=:weight,
		       is_active=:is_active, updated_at=NOW()
		WHERE id=:id`, p)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Get loads a product through q so callers inside a transaction see their own writes.
func Get(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*Product, error) {
	p := &Product{}
	if err := sqlx.GetContext(ctx, q, p, `SELECT `+productColumns+` FROM products WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return p, nil
}

// FindOrCreateBySKU returns the product with sku, inserting a new active product
// named name when none exists. code defaults to the sku.
func FindOrCreateBySKU(ctx context.Context, q sqlx.ExtContext, sku, name string, price decimal.Decimal) (*Product, bool, error) {
	p := &Product{}
	err := sqlx.GetContext(ctx, q, p, `SELECT `+productColumns+` FROM products WHERE sku=$1`, sku)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("find product by sku: %w", err)
	}

	p = &Product{
		ID:       uuid.New(),
		Code:     sku,
		Name:     name,
		SKU:      sku,
		Price:    price,
		IsActive: true,
	}
	err = sqlx.GetContext(ctx, q, p, `
		INSERT INTO products (id, code, name, sku, price, is_active)
		VALUES ($1,$2,$3,$4,$5,TRUE)
		ON CONFLICT (sku) DO UPDATE SET updated_at = products.updated_at
		RETURNING `+productColumns,
		p.ID, p.Code, p.Name, p.SKU, p.Price)
	if err != nil {
		return nil, false, fmt.Errorf("create product %s: %w", sku, err)
	}
	return p, true, nil
}

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type seedSupplier struct{ Name, Code, Email string }

type seedProduct struct {
	Code, Name, Barcode, SKU string
	Price                    int
}

type seedWarehouse struct {
	Code, Name, Address string
	Zones               []string
}

var (
	seedSuppliers = []seedSupplier{
		{"ABC Supply Co.", "SUPP001", "contact@abcsupply.com"},
		{"XYZ Corporation", "SUPP002", "info@xyzcorp.com"},
		{"Global Logistics", "SUPP003", "sales@globallog.com"},
		{"Premier Distributors", "SUPP004", "support@premier.com"},
		{"Tech Distributors", "SUPP005", "contact@techdistr.com"},
		{"Major Suppliers Inc", "SUPP006", "sales@majorsupply.com"},
		{"Infinity Trading", "SUPP007", "info@infinity.com"},
		{"NextGen Supply", "SUPP008", "support@nextgen.com"},
	}

	seedProducts = []seedProduct{
		{"PROD001", "Product A", "BAR001", "SKU001", 100},
		{"PROD002", "Product B", "BAR002", "SKU002", 200},
		{"PROD003", "Product C", "BAR003", "SKU003", 150},
		{"PROD004", "Product D", "BAR004", "SKU004", 300},
		{"PROD005", "Product E", "BAR005", "SKU005", 250},
		{"PROD006", "Product F", "BAR006", "SKU006", 500},
		{"PROD007", "Product G", "BAR007", "SKU007", 350},
		{"PROD008", "Product H", "BAR008", "SKU008", 400},
		{"PROD009", "Product I", "BAR009", "SKU009", 175},
		{"PROD010", "Product J", "BAR010", "SKU010", 275},
	}

	seedWarehouses = []seedWarehouse{
		{"WH001", "Main Warehouse", "123 Warehouse St, Industrial Zone", []string{"A", "B", "C"}},
		{"WH002", "Secondary Warehouse", "45 Harbor Rd, Logistics Park", []string{"A", "B"}},
	}
)

// locationsPerZone is the number of shelf locations created under each seeded zone.
const locationsPerZone = 4

// Seed inserts the demo data set. Rows that already exist by natural key are kept.
func Seed(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, s := range seedSuppliers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO suppliers (id, name, code, email) VALUES ($1,$2,$3,$4)
				ON CONFLICT (code) DO NOTHING`,
				uuid.New(), s.Name, s.Code, s.Email); err != nil {
				return fmt.Errorf("seed supplier %s: %w", s.Code, err)
			}
		}

		productIDs := make([]uuid.UUID, 0, len(seedProducts))
		for _, p := range seedProducts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO products (id, code, name, sku, barcode, price) VALUES ($1,$2,$3,$4,$5,$6)
				ON CONFLICT (code) DO NOTHING`,
				uuid.New(), p.Code, p.Name, p.SKU, p.Barcode, p.Price); err != nil {
				return fmt.Errorf("seed product %s: %w", p.Code, err)
			}
			var id uuid.UUID
			if err := tx.GetContext(ctx, &id, `SELECT id FROM products WHERE code=$1`, p.Code); err != nil {
				return err
			}
			productIDs = append(productIDs, id)
		}

		for wi, w := range seedWarehouses {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO warehouses (id, name, code, address) VALUES ($1,$2,$3,$4)
				ON CONFLICT (code) DO NOTHING`,
				uuid.New(), w.Name, w.Code, w.Address); err != nil {
				return fmt.Errorf("seed warehouse %s: %w", w.Code, err)
			}
			var warehouseID uuid.UUID
			if err := tx.GetContext(ctx, &warehouseID, `SELECT id FROM warehouses WHERE code=$1`, w.Code); err != nil {
				return err
			}

			for _, z := range w.Zones {
				if err := seedZone(ctx, tx, warehouseID, z); err != nil {
					return err
				}
			}

			for pi, productID := range productIDs {
				qty := 100 + ((pi+1)*37+wi*53)%400
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO warehouse_products (id, warehouse_id, product_id, quantity, safe_stock)
					VALUES ($1,$2,$3,$4,$5)
					ON CONFLICT (warehouse_id, product_id) DO NOTHING`,
					uuid.New(), warehouseID, productID, qty, 50); err != nil {
					return fmt.Errorf("seed stock: %w", err)
				}
			}
		}

		log.Info("seed data loaded",
			zap.Int("suppliers", len(seedSuppliers)),
			zap.Int("products", len(seedProducts)),
			zap.Int("warehouses", len(seedWarehouses)))
		return nil
	})
}

func seedZone(ctx context.Context, tx *sqlx.Tx, warehouseID uuid.UUID, code string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO zones (id, warehouse_id, code, name, capacity) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (warehouse_id, code) DO NOTHING`,
		uuid.New(), warehouseID, code, "Zone "+code, 5000); err != nil {
		return fmt.Errorf("seed zone %s: %w", code, err)
	}
	var zoneID uuid.UUID
	if err := tx.GetContext(ctx, &zoneID,
		`SELECT id FROM zones WHERE warehouse_id=$1 AND code=$2`, warehouseID, code); err != nil {
		return err
	}
	for i := 1; i <= locationsPerZone; i++ {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO locations (id, zone_id, code, capacity) VALUES ($1,$2,$3,$4)
			ON CONFLICT (zone_id, code) DO NOTHING`,
			uuid.New(), zoneID, fmt.Sprintf("%s-%02d", code, i), 1000); err != nil {
			return fmt.Errorf("seed location: %w", err)
		}
	}
	return nil
}

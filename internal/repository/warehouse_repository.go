package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// WarehouseRepo reads warehouses.
type WarehouseRepo struct {
	db *sql.DB
}

// NewWarehouseRepo constructs a WarehouseRepo with the given DB handle.
func NewWarehouseRepo(db *sql.DB) *WarehouseRepo {
	return &WarehouseRepo{db: db}
}

// List returns every warehouse ordered by name.
func (r *WarehouseRepo) List(ctx context.Context) ([]model.Warehouse, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM warehouses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Warehouse, 0)
	for rows.Next() {
		var w model.Warehouse
		if err := rows.Scan(&w.ID, &w.Name); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Default returns the first warehouse by name, which receives returned
// units. ErrNotFound means no warehouse exists.
func (r *WarehouseRepo) Default(ctx context.Context) (*model.Warehouse, error) {
	var w model.Warehouse
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM warehouses ORDER BY name LIMIT 1`).Scan(&w.ID, &w.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

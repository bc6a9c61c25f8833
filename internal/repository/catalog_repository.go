package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// CatalogRepo persists device categories and the models (SKUs) under them.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo with the given DB handle.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// ListCategories returns every category ordered by name.
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]model.DeviceCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, image_path FROM device_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.DeviceCategory, 0)
	for rows.Next() {
		var c model.DeviceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImagePath); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts c and sets its ID.
func (r *CatalogRepo) CreateCategory(ctx context.Context, c *model.DeviceCategory) error {
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO device_categories (id, name, description, image_path) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.ImagePath)
	return mapWriteErr(err)
}

// SetCategoryImage stores the object path of a category image.
func (r *CatalogRepo) SetCategoryImage(ctx context.Context, id, path string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE device_categories SET image_path = ? WHERE id = ?`, path, id)
	return err
}

const modelSelect = `SELECT m.id, m.category_id, c.name, m.model_name, m.model_code, m.manufacturer, m.description, m.specs
  FROM device_models m
  LEFT JOIN device_categories c ON c.id = m.category_id`

func scanModel(sc interface{ Scan(...any) error }) (model.DeviceModel, error) {
	var (
		m     model.DeviceModel
		specs []byte
	)
	if err := sc.Scan(&m.ID, &m.CategoryID, &m.CategoryName, &m.ModelName, &m.ModelCode,
		&m.Manufacturer, &m.Description, &specs); err != nil {
		return m, err
	}
	if len(specs) > 0 {
		m.Specs = append(m.Specs[:0], specs...)
	}
	return m, nil
}

// ListModels returns the models of a category, or of every category when
// categoryID is empty, ordered by name.
func (r *CatalogRepo) ListModels(ctx context.Context, categoryID string) ([]model.DeviceModel, error) {
	q := modelSelect + ` ORDER BY m.model_name`
	var args []any
	if categoryID != "" {
		q = modelSelect + ` WHERE m.category_id = ? ORDER BY m.model_name`
		args = append(args, categoryID)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.DeviceModel, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetModel returns one model or ErrNotFound.
func (r *CatalogRepo) GetModel(ctx context.Context, id string) (*model.DeviceModel, error) {
	m, err := scanModel(r.db.QueryRowContext(ctx, modelSelect+` WHERE m.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func specsArg(m *model.DeviceModel) any {
	if len(m.Specs) == 0 {
		return nil
	}
	return []byte(m.Specs)
}

// CreateModel inserts m and sets its ID.
func (r *CatalogRepo) CreateModel(ctx context.Context, m *model.DeviceModel) error {
	m.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO device_models (id, category_id, model_name, model_code, manufacturer, description, specs)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CategoryID, m.ModelName, m.ModelCode, m.Manufacturer, m.Description, specsArg(m))
	return mapWriteErr(err)
}

// UpdateModel overwrites the editable columns of m, or returns ErrNotFound.
func (r *CatalogRepo) UpdateModel(ctx context.Context, m *model.DeviceModel) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE device_models SET category_id = ?, model_name = ?, model_code = ?, manufacturer = ?, description = ?, specs = ?
		  WHERE id = ?`,
		m.CategoryID, m.ModelName, m.ModelCode, m.Manufacturer, m.Description, specsArg(m), m.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetModel(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteModel removes a model. Models that still have devices are refused
// by the foreign key and the driver error is returned as is.
func (r *CatalogRepo) DeleteModel(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device_models WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// RegionRepo reads and writes the two level region tree and the
// regional_managers assignments.
type RegionRepo struct {
	db *sql.DB
}

// NewRegionRepo constructs a RegionRepo with the given DB handle.
func NewRegionRepo(db *sql.DB) *RegionRepo {
	return &RegionRepo{db: db}
}

const regionColumns = `id, name, code, parent_region_id, is_locked, created_at`

func scanRegion(sc interface{ Scan(...any) error }) (model.Region, error) {
	var r model.Region
	err := sc.Scan(&r.ID, &r.Name, &r.Code, &r.ParentRegionID, &r.IsLocked, &r.CreatedAt)
	return r, err
}

// List returns every region ordered by name.
func (r *RegionRepo) List(ctx context.Context) ([]model.Region, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+regionColumns+` FROM regions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Region, 0)
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Get returns a region by id or ErrNotFound.
func (r *RegionRepo) Get(ctx context.Context, id string) (*model.Region, error) {
	reg, err := scanRegion(r.db.QueryRowContext(ctx, `SELECT `+regionColumns+` FROM regions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// CreateSubregion inserts an unlocked child of parentID. A name or code
// that is already taken yields ErrDuplicate.
func (r *RegionRepo) CreateSubregion(ctx context.Context, parentID, name, code string) (*model.Region, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO regions (id, name, code, parent_region_id, is_locked) VALUES (?, ?, ?, ?, FALSE)`,
		id, name, code, parentID)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return r.Get(ctx, id)
}

// UpdateSubregion renames an unlocked region. Locked primaries are never
// matched, so they come back as ErrNotFound.
func (r *RegionRepo) UpdateSubregion(ctx context.Context, id, name, code string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE regions SET name = ?, code = ? WHERE id = ? AND is_locked = FALSE`, name, code, id)
	if err != nil {
		return mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when nothing changed, so
		// confirm the row really is missing.
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM regions WHERE id = ? AND is_locked = FALSE`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteSubregion removes an unlocked region.
func (r *RegionRepo) DeleteSubregion(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM regions WHERE id = ? AND is_locked = FALSE`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Managers lists the regional_managers rows with the manager's name.
func (r *RegionRepo) Managers(ctx context.Context) ([]model.RegionalManager, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rm.user_id, rm.region_id, p.full_name
		   FROM regional_managers rm
		   LEFT JOIN profiles p ON p.user_id = rm.user_id
		  ORDER BY p.full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.RegionalManager, 0)
	for rows.Next() {
		var m model.RegionalManager
		if err := rows.Scan(&m.UserID, &m.RegionID, &m.FullName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AssignManager records userID as a regional manager of regionID and sets
// the profile flag.
func (r *RegionRepo) AssignManager(ctx context.Context, userID, regionID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO regional_managers (user_id, region_id) VALUES (?, ?)`, userID, regionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE profiles SET is_regional_manager = TRUE WHERE user_id = ?`, userID)
		return err
	})
}

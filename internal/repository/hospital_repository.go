package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// HospitalRepo persists hospitals and reads the hospital_overview view.
type HospitalRepo struct {
	db *sql.DB
}

// NewHospitalRepo constructs a HospitalRepo with the given DB handle.
func NewHospitalRepo(db *sql.DB) *HospitalRepo {
	return &HospitalRepo{db: db}
}

const hospitalOverviewColumns = `id, name, address, city, state, zone, region_id, poc, devices_deployed, engineers_assigned`

func scanHospital(sc interface{ Scan(...any) error }) (model.Hospital, error) {
	var (
		h   model.Hospital
		poc []byte
	)
	if err := sc.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.State, &h.Zone, &h.RegionID, &poc,
		&h.DevicesDeployed, &h.EngineersAssigned); err != nil {
		return h, err
	}
	h.POC = []model.POC{}
	if len(poc) > 0 {
		if err := json.Unmarshal(poc, &h.POC); err != nil {
			return h, fmt.Errorf("hospital %s poc: %w", h.ID, err)
		}
	}
	return h, nil
}

func (r *HospitalRepo) listWhere(ctx context.Context, where string, args ...any) ([]model.Hospital, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+hospitalOverviewColumns+` FROM hospital_overview `+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Hospital, 0)
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// List returns every hospital with its deployed device and engineer counts.
func (r *HospitalRepo) List(ctx context.Context) ([]model.Hospital, error) {
	return r.listWhere(ctx, "")
}

// ListByEngineer returns the hospitals assigned to a field engineer.
func (r *HospitalRepo) ListByEngineer(ctx context.Context, engineerID string) ([]model.Hospital, error) {
	return r.listWhere(ctx,
		`WHERE id IN (SELECT hospital_id FROM engineer_hospitals WHERE engineer_id = ?)`, engineerID)
}

// Get returns one hospital or ErrNotFound.
func (r *HospitalRepo) Get(ctx context.Context, id string) (*model.Hospital, error) {
	h, err := scanHospital(r.db.QueryRowContext(ctx,
		`SELECT `+hospitalOverviewColumns+` FROM hospital_overview WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// Create inserts h and sets its ID.
func (r *HospitalRepo) Create(ctx context.Context, h *model.Hospital) error {
	poc, err := json.Marshal(h.POC)
	if err != nil {
		return err
	}
	h.ID = uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO hospitals (id, name, address, city, state, zone, region_id, poc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Address, h.City, h.State, h.Zone, h.RegionID, poc)
	return mapWriteErr(err)
}

// Update overwrites the editable columns of h.
func (r *HospitalRepo) Update(ctx context.Context, h *model.Hospital) error {
	poc, err := json.Marshal(h.POC)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE hospitals SET name = ?, address = ?, city = ?, state = ?, zone = ?, region_id = ?, poc = ?
		 WHERE id = ?`,
		h.Name, h.Address, h.City, h.State, h.Zone, h.RegionID, poc, h.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.Get(ctx, h.ID); err != nil {
			return err
		}
	}
	return nil
}

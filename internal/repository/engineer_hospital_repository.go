package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// EngineerHospitalRepo persists which field engineers cover which hospitals.
type EngineerHospitalRepo struct {
	db *sql.DB
}

// NewEngineerHospitalRepo constructs an EngineerHospitalRepo with the given
// DB handle.
func NewEngineerHospitalRepo(db *sql.DB) *EngineerHospitalRepo {
	return &EngineerHospitalRepo{db: db}
}

const assignmentSelect = `SELECT eh.id, eh.engineer_id, p.full_name, eh.hospital_id, h.name, h.city, h.zone,
       eh.assigned_by, eh.assigned_at
  FROM engineer_hospitals eh
  JOIN hospitals h ON h.id = eh.hospital_id
  LEFT JOIN profiles p ON p.user_id = eh.engineer_id`

func (r *EngineerHospitalRepo) query(ctx context.Context, where string, args ...any) ([]model.EngineerAssignment, error) {
	rows, err := r.db.QueryContext(ctx, assignmentSelect+" "+where+" ORDER BY h.name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.EngineerAssignment, 0)
	for rows.Next() {
		var a model.EngineerAssignment
		if err := rows.Scan(&a.ID, &a.EngineerID, &a.EngineerName, &a.HospitalID, &a.HospitalName,
			&a.HospitalCity, &a.HospitalZone, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// List returns every assignment ordered by hospital name.
func (r *EngineerHospitalRepo) List(ctx context.Context) ([]model.EngineerAssignment, error) {
	return r.query(ctx, "")
}

// ListByEngineers returns the assignments of the given engineers.
func (r *EngineerHospitalRepo) ListByEngineers(ctx context.Context, engineerIDs []string) ([]model.EngineerAssignment, error) {
	if len(engineerIDs) == 0 {
		return []model.EngineerAssignment{}, nil
	}
	return r.query(ctx, `WHERE eh.engineer_id IN (`+placeholders(len(engineerIDs))+`)`, stringArgs(engineerIDs)...)
}

// ListByHospital returns the engineers covering a hospital.
func (r *EngineerHospitalRepo) ListByHospital(ctx context.Context, hospitalID string) ([]model.EngineerAssignment, error) {
	return r.query(ctx, `WHERE eh.hospital_id = ?`, hospitalID)
}

// Upsert assigns an engineer to a hospital. Re-assigning refreshes
// assigned_by and assigned_at.
func (r *EngineerHospitalRepo) Upsert(ctx context.Context, engineerID, hospitalID, assignedBy string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO engineer_hospitals (id, engineer_id, hospital_id, assigned_by)
		 VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE assigned_by = VALUES(assigned_by), assigned_at = CURRENT_TIMESTAMP`,
		uuid.NewString(), engineerID, hospitalID, assignedBy)
	return err
}

// Delete removes an assignment.
func (r *EngineerHospitalRepo) Delete(ctx context.Context, engineerID, hospitalID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM engineer_hospitals WHERE engineer_id = ? AND hospital_id = ?`, engineerID, hospitalID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

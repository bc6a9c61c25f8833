package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// ProfileRepo persists team member profiles and their approval state.
type ProfileRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewProfileRepo constructs a ProfileRepo with the given DB handle.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db, now: time.Now}
}

const profileColumns = `user_id, full_name, phone, manager_id, is_regional_manager,
       approval_status, role, is_active, rejection_reason, decision_by, decision_at, created_at`

func scanProfile(sc interface{ Scan(...any) error }) (model.Profile, error) {
	var (
		p            model.Profile
		status, role *string
		reason       *string
		active       bool
	)
	if err := sc.Scan(&p.UserID, &p.FullName, &p.Phone, &p.ManagerID, &p.IsRegionalManager,
		&status, &role, &active, &reason, &p.DecisionBy, &p.DecisionAt, &p.CreatedAt); err != nil {
		return p, err
	}
	st, err := model.StateFromColumns(status, role, active, reason)
	if err != nil {
		return p, err
	}
	p.State = st
	return p, nil
}

func queryProfiles(ctx context.Context, q querier, where string, args ...any) ([]model.Profile, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// List returns every profile, newest first.
func (r *ProfileRepo) List(ctx context.Context) ([]model.Profile, error) {
	return queryProfiles(ctx, r.db, `ORDER BY created_at DESC`)
}

// ListReports returns the profiles whose manager is managerID.
func (r *ProfileRepo) ListReports(ctx context.Context, managerID string) ([]model.Profile, error) {
	return queryProfiles(ctx, r.db, `WHERE manager_id = ? ORDER BY full_name`, managerID)
}

// Get returns one profile or ErrNotFound.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert inserts or overwrites the descriptive columns and approval state
// of p.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile) error {
	status, role, active, reason := model.Columns(p.State)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, phone, manager_id, approval_status, role, is_active, rejection_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE full_name = VALUES(full_name), phone = VALUES(phone), manager_id = VALUES(manager_id),
		     approval_status = VALUES(approval_status), role = VALUES(role), is_active = VALUES(is_active),
		     rejection_reason = VALUES(rejection_reason)`,
		p.UserID, p.FullName, p.Phone, p.ManagerID, string(status), role, active, reason)
	return err
}

// Delete removes a profile. Reports keep existing with manager_id cleared by
// the foreign key.
func (r *ProfileRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Transition locks the profile, hands its current approval state to fn and
// stores what fn returns together with the decision stamp. The updated
// profile is returned.
func (r *ProfileRepo) Transition(ctx context.Context, userID, decidedBy string,
	fn func(model.ApprovalState) (model.ApprovalState, error)) (*model.Profile, error) {
	var out model.Profile
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		p, err := lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		next, err := fn(p.State)
		if err != nil {
			return err
		}
		status, role, active, reason := model.Columns(next)
		at := r.now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles SET approval_status = ?, role = ?, is_active = ?, rejection_reason = ?,
			        decision_by = ?, decision_at = ?
			  WHERE user_id = ?`,
			string(status), role, active, reason, decidedBy, at, userID); err != nil {
			return err
		}
		p.State = next
		p.DecisionBy = &decidedBy
		p.DecisionAt = &at
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetActive toggles an approved profile. Deactivating also drops the
// regional manager flag and region rows, clears the profile's own manager
// and detaches every report, all in one transaction.
func (r *ProfileRepo) SetActive(ctx context.Context, userID string, active bool) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		p, err := lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		next, err := model.SetActive(p.State, active)
		if err != nil {
			return err
		}
		_, _, isActive, _ := model.Columns(next)
		if active {
			_, err := tx.ExecContext(ctx, `UPDATE profiles SET is_active = ? WHERE user_id = ?`, isActive, userID)
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles SET is_active = ?, is_regional_manager = FALSE, manager_id = NULL WHERE user_id = ?`,
			isActive, userID); err != nil {
			return err
		}
		return detachReports(ctx, tx, userID)
	})
}

// RemoveRegionalManager clears the manager flag and region rows of userID
// and detaches every report.
func (r *ProfileRepo) RemoveRegionalManager(ctx context.Context, userID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE profiles SET is_regional_manager = FALSE WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			if _, err := lockProfile(ctx, tx, userID); err != nil {
				return err
			}
		}
		return detachReports(ctx, tx, userID)
	})
}

// SetManager points a field engineer at a regional manager.
func (r *ProfileRepo) SetManager(ctx context.Context, userID string, managerID *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET manager_id = ? WHERE user_id = ?`, managerID, userID)
	return err
}

func lockProfile(ctx context.Context, tx *sql.Tx, userID string) (model.Profile, error) {
	p, err := scanProfile(tx.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ? FOR UPDATE`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func detachReports(ctx context.Context, tx *sql.Tx, managerID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM regional_managers WHERE user_id = ?`, managerID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE profiles SET manager_id = NULL WHERE manager_id = ?`, managerID)
	return err
}

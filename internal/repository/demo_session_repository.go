package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

// UnavailableError lists the serials that were no longer AVAILABLE demo units
// when a session tried to claim them.
type UnavailableError struct {
	Serials []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("devices are no longer available for demo: %s", strings.Join(e.Serials, ", "))
}

// ErrDeviceUnavailable is matched by every UnavailableError.
var ErrDeviceUnavailable = errors.New("device unavailable")

// Is lets errors.Is(err, ErrDeviceUnavailable) match.
func (e *UnavailableError) Is(target error) bool { return target == ErrDeviceUnavailable }

// NewSession is what CreateWithDevices needs to open a demo session.
type NewSession struct {
	HospitalID     string
	OwnerProfileID string
	StartDate      time.Time
	EndDate        time.Time
	DeviceIDs      []string
	DemoStatus     model.DemoStatus
}

// DemoSessionRepo persists demo sessions and their units.
type DemoSessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewDemoSessionRepo constructs a DemoSessionRepo with the given DB handle.
func NewDemoSessionRepo(db *sql.DB) *DemoSessionRepo {
	return &DemoSessionRepo{db: db, now: time.Now}
}

// CreateWithDevices opens a session in a single transaction: the selected
// units are locked and checked to be AVAILABLE demo units, then the session
// row, its join rows and the unit updates are written. Any failure leaves
// the store untouched.
func (r *DemoSessionRepo) CreateWithDevices(ctx context.Context, s NewSession) (string, error) {
	if len(s.DeviceIDs) == 0 {
		return "", errors.New("no devices selected")
	}
	id := uuid.NewString()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, serial_number, usage_type, demo_status FROM devices
			  WHERE id IN (`+placeholders(len(s.DeviceIDs))+`) FOR UPDATE`,
			stringArgs(s.DeviceIDs)...)
		if err != nil {
			return err
		}
		found := map[string]bool{}
		var bad []string
		for rows.Next() {
			var (
				devID, serial string
				usage         model.UsageType
				demo          *model.DemoStatus
			)
			if err := rows.Scan(&devID, &serial, &usage, &demo); err != nil {
				rows.Close()
				return err
			}
			found[devID] = true
			if usage != model.UsageDemo || demo == nil || *demo != model.DemoAvailable {
				bad = append(bad, serial)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
		for _, devID := range s.DeviceIDs {
			if !found[devID] {
				bad = append(bad, devID)
			}
		}
		if len(bad) > 0 {
			return &UnavailableError{Serials: bad}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO demo_sessions (id, hospital_id, owner_profile_id, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
			id, s.HospitalID, s.OwnerProfileID, s.StartDate, s.EndDate); err != nil {
			return err
		}

		values := make([]string, len(s.DeviceIDs))
		args := make([]any, 0, 2*len(s.DeviceIDs))
		for i, devID := range s.DeviceIDs {
			values[i] = "(?, ?)"
			args = append(args, id, devID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO demo_session_devices (session_id, device_id) VALUES `+strings.Join(values, ", "),
			args...); err != nil {
			return err
		}

		upd := append([]any{s.DemoStatus, s.HospitalID, r.now().UTC()}, stringArgs(s.DeviceIDs)...)
		_, err = tx.ExecContext(ctx,
			`UPDATE devices SET demo_status = ?, demo_assigned_hospital_id = ?, demo_last_used_at = ?
			  WHERE id IN (`+placeholders(len(s.DeviceIDs))+`)`, upd...)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// List returns every session newest first with hospital and owner names and
// the units attached to it.
func (r *DemoSessionRepo) List(ctx context.Context) ([]model.DemoSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.hospital_id, h.name, s.owner_profile_id, p.full_name, s.start_date, s.end_date, s.created_at
		   FROM demo_sessions s
		   LEFT JOIN hospitals h ON h.id = s.hospital_id
		   LEFT JOIN profiles p ON p.user_id = s.owner_profile_id
		  ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.DemoSession, 0)
	pos := map[string]int{}
	for rows.Next() {
		var s model.DemoSession
		if err := rows.Scan(&s.ID, &s.HospitalID, &s.HospitalName, &s.OwnerProfileID, &s.OwnerName,
			&s.StartDate, &s.EndDate, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Devices = []model.SessionDevice{}
		pos[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	drows, err := r.db.QueryContext(ctx,
		`SELECT sd.session_id, d.id, d.serial_number, d.demo_status
		   FROM demo_session_devices sd
		   JOIN devices d ON d.id = sd.device_id
		  ORDER BY d.serial_number`)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var (
			sessionID string
			d         model.SessionDevice
		)
		if err := drows.Scan(&sessionID, &d.ID, &d.SerialNumber, &d.DemoStatus); err != nil {
			return nil, err
		}
		if i, ok := pos[sessionID]; ok {
			out[i].Devices = append(out[i].Devices, d)
		}
	}
	return out, drows.Err()
}

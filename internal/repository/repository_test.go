package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/device-ops-dashboard/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var fixedNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func profileRow(userID string, status, role any, active bool, manager any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "full_name", "phone", "manager_id", "is_regional_manager",
		"approval_status", "role", "is_active", "rejection_reason", "decision_by", "decision_at", "created_at"}).
		AddRow(userID, "Ravi", nil, manager, true, status, role, active, nil, nil, nil, fixedNow)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicateKey(errors.New("1062")))
	assert.Equal(t, ErrDuplicate, mapWriteErr(&mysql.MySQLError{Number: 1062}))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestRegionRepo_CreateSubregionDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRegionRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO regions`)).
		WithArgs(sqlmock.AnyArg(), "North", "S-N", "p1").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'North' for key 'uq_regions_name'"})

	_, err := repo.CreateSubregion(context.Background(), "p1", "North", "S-N")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegionRepo_DeleteLockedIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRegionRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM regions WHERE id = ? AND is_locked = FALSE`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteSubregion(context.Background(), "p1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoSessionRepo_CreateWithDevices(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoSessionRepo(db)
	repo.now = func() time.Time { return fixedNow }

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, serial_number, usage_type, demo_status FROM devices`)).
		WithArgs("d1", "d2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "serial_number", "usage_type", "demo_status"}).
			AddRow("d1", "SN-1", "DEMO", "AVAILABLE").
			AddRow("d2", "SN-2", "DEMO", "AVAILABLE"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO demo_sessions`)).
		WithArgs(sqlmock.AnyArg(), "h1", "u1", start, end).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO demo_session_devices (session_id, device_id) VALUES (?, ?), (?, ?)`)).
		WithArgs(sqlmock.AnyArg(), "d1", sqlmock.AnyArg(), "d2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE devices SET demo_status = ?, demo_assigned_hospital_id = ?, demo_last_used_at = ?`)).
		WithArgs("IN_USE", "h1", fixedNow, "d1", "d2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	id, err := repo.CreateWithDevices(context.Background(), NewSession{
		HospitalID:     "h1",
		OwnerProfileID: "u1",
		StartDate:      start,
		EndDate:        end,
		DeviceIDs:      []string{"d1", "d2"},
		DemoStatus:     model.DemoInUse,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoSessionRepo_CreateWithDevicesUnavailableRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoSessionRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, serial_number, usage_type, demo_status FROM devices`)).
		WithArgs("d1", "d2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "serial_number", "usage_type", "demo_status"}).
			AddRow("d1", "SN-1", "DEMO", "AVAILABLE").
			AddRow("d2", "SN-2", "DEMO", "IN_USE"))
	mock.ExpectRollback()

	_, err := repo.CreateWithDevices(context.Background(), NewSession{
		HospitalID: "h1", OwnerProfileID: "u1", DeviceIDs: []string{"d1", "d2"}, DemoStatus: model.DemoInUse,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []string{"SN-2"}, ue.Serials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoSessionRepo_CreateWithDevicesStoreErrorRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoSessionRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, serial_number, usage_type, demo_status FROM devices`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "serial_number", "usage_type", "demo_status"}).
			AddRow("d1", "SN-1", "DEMO", "AVAILABLE"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO demo_sessions`)).
		WillReturnError(errors.New("Cannot add or update a child row"))
	mock.ExpectRollback()

	_, err := repo.CreateWithDevices(context.Background(), NewSession{
		HospitalID: "missing", OwnerProfileID: "u1", DeviceIDs: []string{"d1"}, DemoStatus: model.DemoInUse,
	})
	require.Error(t, err)
	assert.Equal(t, "Cannot add or update a child row", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoSessionRepo_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDemoSessionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM demo_sessions s`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hospital_id", "name", "owner_profile_id", "full_name",
			"start_date", "end_date", "created_at"}).
			AddRow("s2", "h1", "City Care", "u1", "Ravi", fixedNow, fixedNow, fixedNow).
			AddRow("s1", "h2", nil, nil, nil, fixedNow, fixedNow, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM demo_session_devices sd`)).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "id", "serial_number", "demo_status"}).
			AddRow("s1", "d1", "SN-1", "RETURNED"))

	sessions, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "City Care", *sessions[0].HospitalName)
	assert.Empty(t, sessions[0].Devices)
	assert.Nil(t, sessions[1].OwnerName)
	require.Len(t, sessions[1].Devices, 1)
	assert.Equal(t, model.DemoReturned, *sessions[1].Devices[0].DemoStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_DeactivateDetachesReports(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles WHERE user_id = ? FOR UPDATE`)).
		WithArgs("rm1").
		WillReturnRows(profileRow("rm1", "APPROVED", "REGIONAL_MANAGER", true, nil))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE profiles SET is_active = ?, is_regional_manager = FALSE, manager_id = NULL WHERE user_id = ?`)).
		WithArgs(false, "rm1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM regional_managers WHERE user_id = ?`)).
		WithArgs("rm1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE profiles SET manager_id = NULL WHERE manager_id = ?`)).
		WithArgs("rm1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.SetActive(context.Background(), "rm1", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_SetActiveRejectsPending(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("u2").
		WillReturnRows(profileRow("u2", "PENDING", nil, false, nil))
	mock.ExpectRollback()

	err := repo.SetActive(context.Background(), "u2", true)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_TransitionApprove(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepo(db)
	repo.now = func() time.Time { return fixedNow }

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("u3").
		WillReturnRows(profileRow("u3", "REJECTED", nil, false, nil))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE profiles SET approval_status = ?`)).
		WithArgs("APPROVED", "FIELD_ENGINEER", true, nil, "admin", fixedNow, "u3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := repo.Transition(context.Background(), "u3", "admin", func(s model.ApprovalState) (model.ApprovalState, error) {
		return model.Approve(s, model.RoleFieldEngineer)
	})
	require.NoError(t, err)
	assert.True(t, p.IsActive())
	assert.Equal(t, "admin", *p.DecisionBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepo_AssignToHospitalRequiresWarehouseStock(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM devices WHERE id = ? FOR UPDATE`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "current_location_type", "current_hospital_id", "current_warehouse_id"}).
			AddRow("DEPLOYED", "HOSPITAL", "h9", nil))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.AssignToHospital(context.Background(), "d1", "h1"), ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepo_AssignToHospitalRecordsMovement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepo(db)
	repo.now = func() time.Time { return fixedNow }

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "current_location_type", "current_hospital_id", "current_warehouse_id"}).
			AddRow("IN_INVENTORY", "WAREHOUSE", nil, "w1"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE devices SET current_location_type = ?, current_hospital_id = ?, current_warehouse_id = ?, status = ?`)).
		WithArgs("HOSPITAL", "h1", nil, "DEPLOYED", "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO device_movements`)).
		WithArgs(sqlmock.AnyArg(), "d1", fixedNow, "ASSIGNED", "WAREHOUSE", nil, "w1", "HOSPITAL", "h1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AssignToHospital(context.Background(), "d1", "h1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepo_UpdateMissingIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectExec(`UPDATE devices SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`WHERE d\.id = \?`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	d := &model.Device{ID: "nope", DeviceModelID: "m1", UsageType: model.UsageSold, Status: model.StatusInInventory}
	assert.ErrorIs(t, repo.Update(context.Background(), d), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepo_UpdateChangedRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepo(db)

	mock.ExpectExec(`UPDATE devices SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	d := &model.Device{ID: "d1", DeviceModelID: "m1", UsageType: model.UsageSold, Status: model.StatusInInventory}
	require.NoError(t, repo.Update(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepo_UpdateModelMissingIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCatalogRepo(db)

	mock.ExpectExec(`UPDATE device_models SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`WHERE m\.id = \?`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	m := &model.DeviceModel{ID: "nope", CategoryID: "c1", ModelCode: "P-1"}
	assert.ErrorIs(t, repo.UpdateModel(context.Background(), m), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarehouseRepo_DefaultMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewWarehouseRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM warehouses ORDER BY name LIMIT 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := repo.Default(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepo_EmptyViewsAreZero(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSummaryRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM inventory_summary`)).
		WillReturnRows(sqlmock.NewRows([]string{"total_devices"}))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM demo_summary`)).
		WillReturnRows(sqlmock.NewRows([]string{"in_use"}))

	inv, err := repo.Inventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.InventorySummary{}, inv)

	demo, err := repo.Demo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DemoSummary{}, demo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalRepo_GetDecodesPOC(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewHospitalRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM hospital_overview WHERE id = ?`)).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "city", "state", "zone", "region_id", "poc",
			"devices_deployed", "engineers_assigned"}).
			AddRow("h1", "City Care", "12 MG Road, 560001", "Bengaluru", "Karnataka", "South", "s1",
				[]byte(`[{"name":"Dr. Rao","phone":"98450"}]`), 3, 1))

	h, err := repo.Get(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, []model.POC{{Name: "Dr. Rao", Phone: "98450"}}, h.POC)
	assert.Equal(t, 3, h.DevicesDeployed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

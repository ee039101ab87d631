package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const (
	lockQuery   = `SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`
	deleteLive  = `DELETE FROM broadcasts WHERE device_id=\$1 AND expires_at > \$2`
	insertQuery = `(?s)INSERT INTO broadcasts.*RETURNING id, usr, note`
)

var broadcastColumns = []string{
	"id", "usr", "note", "lat", "lon", "expires_at", "delete_token",
	"duration_hours", "device_id", "created_at",
}

func newRepoWithMock(t *testing.T) (*BroadcastRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sdb := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { sdb.Close() })
	return NewBroadcastRepo(sdb), mock
}

// A device-tagged creation must lock the device id, then clear any live row
// for it, then insert, all inside one transaction. The ordered expectations
// fail if the lock is skipped or taken after the delete.
func TestCreateSupersedesLiveDeviceBroadcast(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(2 * time.Hour)
	device := "D1"
	duration := 2.0

	expectDeviceCreate := func(id int64, note string, deleted int64) {
		mock.ExpectBegin()
		mock.ExpectExec(lockQuery).
			WithArgs(device).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(deleteLive).
			WithArgs(device, now).
			WillReturnResult(sqlmock.NewResult(0, deleted))
		mock.ExpectQuery(insertQuery).
			WithArgs("Ann", note, nil, nil, expiresAt, sqlmock.AnyArg(), duration, device, now).
			WillReturnRows(sqlmock.NewRows(broadcastColumns).
				AddRow(id, "Ann", note, nil, nil, expiresAt, "tok", duration, device, now))
		mock.ExpectCommit()
	}

	expectDeviceCreate(1, "first", 0)
	expectDeviceCreate(2, "second", 1)

	params := CreateBroadcastParams{
		User:          "Ann",
		Note:          "first",
		DurationHours: &duration,
		DeviceID:      &device,
		Now:           now,
	}
	first, err := repo.Create(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, "first", first.Note)

	params.Note = "second"
	second, err := repo.Create(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, "second", second.Note)
	require.Equal(t, 2, second.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithoutDeviceSkipsSupersede(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(time.Duration(DefaultDurationHours * float64(time.Hour)))

	mock.ExpectBegin()
	mock.ExpectQuery(insertQuery).
		WithArgs("Bo", "cafe", nil, nil, expiresAt, sqlmock.AnyArg(), nil, nil, now).
		WillReturnRows(sqlmock.NewRows(broadcastColumns).
			AddRow(3, "Bo", "cafe", nil, nil, expiresAt, "tok", nil, nil, now))
	mock.ExpectCommit()

	b, err := repo.Create(context.Background(), CreateBroadcastParams{
		User: "Bo",
		Note: "cafe",
		Now:  now,
	})
	require.NoError(t, err)
	require.Equal(t, "cafe", b.Note)
	require.True(t, b.ExpiresAt.Equal(expiresAt))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByTokenReportsRemoval(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM broadcasts WHERE delete_token=\$1`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM broadcasts WHERE delete_token=\$1`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.DeleteByToken(context.Background(), "tok")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.DeleteByToken(context.Background(), "tok")
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, mock.ExpectationsWereMet())
}

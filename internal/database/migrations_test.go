package database

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreSingleStatements(t *testing.T) {
	migs := Migrations(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Len(t, migs, len(schema))
	for i, stmt := range schema {
		trimmed := strings.TrimRight(strings.TrimSpace(stmt), ";")
		require.NotContains(t, trimmed, ";", "migration %d", i+1)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN("shop", "pw", "db", "3306", "storefront")
	require.True(t, strings.HasPrefix(dsn, "shop:pw@tcp(db:3306)/storefront?"), dsn)
	require.Contains(t, dsn, "parseTime=true")
	require.Contains(t, dsn, "charset=utf8mb4")
	require.Contains(t, dsn, "clientFoundRows=true")
}

func TestGetVersionCreatesTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version FROM migration_version").WillReturnError(errors.New("no such table"))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migration_version").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO migration_version").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE migration_version SET version = ?").WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	v, err := getVersion(tx)
	require.NoError(t, err)
	require.Equal(t, 0, v)
	require.NoError(t, setVersion(tx, 3))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

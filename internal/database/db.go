package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/migration"
	"github.com/go-sql-driver/mysql"
)

// DSN builds a go-sql-driver DSN.  parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps stored times consistent across hosts.
// clientFoundRows makes RowsAffected count matched rows, so an UPDATE that
// writes identical values is not mistaken for a missing row.
func DSN(user, pass, host, port, name string) string {
	c := mysql.NewConfig()
	c.User = user
	c.Passwd = pass
	c.Net = "tcp"
	c.Addr = host + ":" + port
	c.DBName = name
	c.ParseTime = true
	c.ClientFoundRows = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL, brings the schema up to date and verifies the
// connection.
func Open(log *slog.Logger, user, pass, host, port, name string) (*sql.DB, error) {
	db, err := migration.OpenWith("mysql", DSN(user, pass, host, port, name), Migrations(log), getVersion, setVersion)
	if err != nil {
		return nil, fmt.Errorf("open and migrate: %w", err)
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// The library's default version bookkeeping uses $1 placeholders and a
// multi-statement create, neither of which MySQL accepts.

func getVersion(tx migration.LimitedTx) (int, error) {
	var v int
	err := tx.QueryRow("SELECT version FROM migration_version LIMIT 1").Scan(&v)
	if err == nil {
		return v, nil
	}
	if _, err := tx.Exec("CREATE TABLE IF NOT EXISTS migration_version (version INT NOT NULL)"); err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO migration_version (version) VALUES (0)"); err != nil {
		return 0, err
	}
	return 0, nil
}

func setVersion(tx migration.LimitedTx, version int) error {
	_, err := tx.Exec("UPDATE migration_version SET version = ?", version)
	return err
}

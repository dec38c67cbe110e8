package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DefaultMySQLTable is the table used when no table name is configured.
const DefaultMySQLTable = "tasklist_slots"

// mysqlTableFull is ER_RECORD_FILE_FULL ("The table is full").
const mysqlTableFull = 1114

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// MySQLStorage keeps slots in a two-column key/value table.
type MySQLStorage struct {
	db    *sql.DB
	table string
}

// OpenMySQL connects to dsn, verifies the connection and creates the slot
// table if it is missing.
func OpenMySQL(ctx context.Context, dsn, table string) (*MySQLStorage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql dsn is empty")
	}
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if table == "" {
		table = DefaultMySQLTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid mysql table name %q", table)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping mysql: %v", ErrUnavailable, err)
	}

	s := &MySQLStorage{db: db, table: table}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStorage) migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    slot_key VARCHAR(255) NOT NULL PRIMARY KEY,
    slot_value LONGBLOB NOT NULL,
    updated_at DATETIME(3) NOT NULL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create slot table: %w", mapMySQLError(err))
	}
	return nil
}

// Get reads the payload stored under key.
func (s *MySQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT slot_value FROM %s WHERE slot_key = ?", s.table)
	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", key, mapMySQLError(err))
	}
	return value, nil
}

// Set upserts the payload under key.
func (s *MySQLStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (slot_key, slot_value, updated_at) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE slot_value = VALUES(slot_value), updated_at = VALUES(updated_at)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("write slot %q: %w", key, mapMySQLError(err))
	}
	return nil
}

// Remove deletes the row for key.
func (s *MySQLStorage) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE slot_key = ?", s.table)
	if _, err := s.db.ExecContext(ctx, stmt, key); err != nil {
		return fmt.Errorf("remove slot %q: %w", key, mapMySQLError(err))
	}
	return nil
}

// Close closes the database handle.
func (s *MySQLStorage) Close() error {
	return s.db.Close()
}

// mapMySQLError attaches the package sentinels to driver errors.
func mapMySQLError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlTableFull {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	var netErr net.Error
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

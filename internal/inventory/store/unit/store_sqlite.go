package unit

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	"bloodbank/pkg/platform/sentinel"
	txcontext "bloodbank/pkg/platform/tx"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore persists units in a single SQLite file for single-node
// deployments. Timestamps are stored as Unix nanoseconds so ordering and range
// scans on the expiry index are plain integer comparisons.
type SQLiteStore struct {
	db    *sql.DB
	clock Clock
}

type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock overrides the timestamp source.
func WithSQLiteClock(clock Clock) SQLiteOption {
	return func(s *SQLiteStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if path == "" {
		path = "bloodbank.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY and keeps
	// ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create blood_units table: %w", err)
	}
	s := &SQLiteStore{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB exposes the handle so callers can share it with a tx.SQLRunner.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Timestamps are int64 nanoseconds, which only cover these instants.
var (
	minSQLiteTime = time.Unix(0, math.MinInt64).UTC()
	maxSQLiteTime = time.Unix(0, math.MaxInt64).UTC()
)

func sqliteExpiry(t time.Time) (int64, error) {
	if t.Before(minSQLiteTime) || t.After(maxSQLiteTime) {
		return 0, fmt.Errorf("expiry date %s is outside the storable range", t.Format(time.RFC3339))
	}
	return t.UnixNano(), nil
}

// sqliteCutoff clamps a query bound into the storable range.
func sqliteCutoff(t time.Time) int64 {
	switch {
	case t.Before(minSQLiteTime):
		return math.MinInt64
	case t.After(maxSQLiteTime):
		return math.MaxInt64
	}
	return t.UnixNano()
}

func (s *SQLiteStore) Create(ctx context.Context, u *models.BloodUnit) error {
	expiry, err := sqliteExpiry(u.ExpiryDate)
	if err != nil {
		return err
	}
	now := s.clock()
	lab, hospital := refArgs(u.Holder)
	_, err = txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO blood_units (id, blood_group, quantity, expiry_date, blood_lab_ref, hospital_ref, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), string(u.BloodGroup), u.Quantity.Int(), expiry,
		lab, hospital, string(u.Status), now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert blood unit: %w", err)
	}
	u.CreatedAt = time.Unix(0, now.UnixNano()).UTC()
	u.UpdatedAt = u.CreatedAt
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, u *models.BloodUnit) error {
	expiry, err := sqliteExpiry(u.ExpiryDate)
	if err != nil {
		return err
	}
	now := s.clock()
	lab, hospital := refArgs(u.Holder)
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE blood_units
		SET blood_group = ?, quantity = ?, expiry_date = ?, blood_lab_ref = ?, hospital_ref = ?, status = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?`,
		string(u.BloodGroup), u.Quantity.Int(), expiry, lab, hospital, string(u.Status),
		now.UnixNano(), u.ID.String(), u.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("update blood unit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update blood unit rows: %w", err)
	}
	if n == 0 {
		// distinguish a missing row from a stale updated_at
		if _, err := s.FindByID(ctx, u.ID); err != nil {
			return err
		}
		return sentinel.ErrConflict
	}
	stored, err := s.FindByID(ctx, u.ID)
	if err != nil {
		return err
	}
	u.CreatedAt = stored.CreatedAt
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *SQLiteStore) FindByID(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM blood_units WHERE id = ?`, unitID.String())
	if err != nil {
		return nil, fmt.Errorf("find blood unit by id: %w", err)
	}
	units, err := scanSQLiteRows(rows)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return units[0], nil
}

func (s *SQLiteStore) ListByHolder(ctx context.Context, holder models.Holder, group *models.BloodGroup) ([]*models.BloodUnit, error) {
	query := `SELECT ` + selectColumns + ` FROM blood_units WHERE ` + holderColumn(holder) + ` = ?`
	args := []any{holder.Facility().String()}
	if group != nil {
		query += ` AND blood_group = ?`
		args = append(args, string(*group))
	}
	query += ` ORDER BY expiry_date, id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood units by holder: %w", err)
	}
	return scanSQLiteRows(rows)
}

func (s *SQLiteStore) ListExpiringBefore(ctx context.Context, cutoff time.Time, status models.Status) ([]*models.BloodUnit, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM blood_units WHERE expiry_date <= ? AND status = ? ORDER BY expiry_date, id`,
		sqliteCutoff(cutoff), string(status))
	if err != nil {
		return nil, fmt.Errorf("list expiring blood units: %w", err)
	}
	return scanSQLiteRows(rows)
}

func (s *SQLiteStore) SumAvailableByHolder(ctx context.Context, holder models.Holder) (map[models.BloodGroup]models.Quantity, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT blood_group, COALESCE(SUM(quantity), 0) FROM blood_units
		WHERE `+holderColumn(holder)+` = ? AND status = ? GROUP BY blood_group`,
		holder.Facility().String(), string(models.StatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("sum blood units: %w", err)
	}
	defer func() { _ = rows.Close() }()
	totals := make(map[models.BloodGroup]models.Quantity)
	for rows.Next() {
		var group string
		var total int64
		if err := rows.Scan(&group, &total); err != nil {
			return nil, fmt.Errorf("scan blood unit sum: %w", err)
		}
		totals[models.BloodGroup(group)] = models.Quantity(total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood unit sums: %w", err)
	}
	return totals, nil
}

func scanSQLiteRows(rows *sql.Rows) ([]*models.BloodUnit, error) {
	defer func() { _ = rows.Close() }()
	var units []*models.BloodUnit
	for rows.Next() {
		var r unitRow
		var expiry, created, updated int64
		if err := rows.Scan(
			&r.ID, &r.BloodGroup, &r.Quantity, &expiry,
			&r.BloodLabRef, &r.HospitalRef, &r.Status, &created, &updated,
		); err != nil {
			return nil, fmt.Errorf("scan blood unit: %w", err)
		}
		r.ExpiryDate = time.Unix(0, expiry).UTC()
		r.CreatedAt = time.Unix(0, created).UTC()
		r.UpdatedAt = time.Unix(0, updated).UTC()
		u, err := toUnit(r)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood units: %w", err)
	}
	return units, nil
}

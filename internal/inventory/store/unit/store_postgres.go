package unit

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
	"bloodbank/pkg/platform/sentinel"
	txcontext "bloodbank/pkg/platform/tx"
)

//go:embed schema_postgres.sql
var postgresSchema string

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// PostgresStore persists units in PostgreSQL. Writes join the transaction
// carried by ctx, so a unit and its audit outbox row commit together.
type PostgresStore struct {
	db    *sql.DB
	clock Clock
}

type PostgresOption func(*PostgresStore)

// WithPostgresClock overrides the timestamp source.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed unit store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the blood_units table and its indexes if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate blood_units: %w", err)
	}
	return nil
}

// now is truncated to the column precision so the optimistic check in Update
// compares exactly what was stored.
func (s *PostgresStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStore) Create(ctx context.Context, u *models.BloodUnit) error {
	now := s.now()
	lab, hospital := refArgs(u.Holder)
	query := `
		INSERT INTO blood_units (id, blood_group, quantity, expiry_date, blood_lab_ref, hospital_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		u.ID.String(),
		string(u.BloodGroup),
		u.Quantity.Int(),
		u.ExpiryDate,
		lab,
		hospital,
		string(u.Status),
		now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert blood unit: %w", err)
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// Update writes the full document. The row is only replaced if updated_at
// still matches the caller's copy; otherwise ErrConflict is returned.
func (s *PostgresStore) Update(ctx context.Context, u *models.BloodUnit) error {
	now := s.now()
	lab, hospital := refArgs(u.Holder)
	query := `
		UPDATE blood_units
		SET blood_group = $2, quantity = $3, expiry_date = $4, blood_lab_ref = $5,
			hospital_ref = $6, status = $7, updated_at = $8
		WHERE id = $1 AND updated_at = $9
		RETURNING created_at
	`
	var createdAt time.Time
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		u.ID.String(),
		string(u.BloodGroup),
		u.Quantity.Int(),
		u.ExpiryDate,
		lab,
		hospital,
		string(u.Status),
		now,
		u.UpdatedAt,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.missingOrStale(ctx, u.ID)
	}
	if err != nil {
		return fmt.Errorf("update blood unit: %w", err)
	}
	u.CreatedAt = createdAt
	u.UpdatedAt = now
	return nil
}

func (s *PostgresStore) missingOrStale(ctx context.Context, unitID id.BloodUnitID) error {
	var exists bool
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM blood_units WHERE id = $1)`, unitID.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check blood unit: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) FindByID(ctx context.Context, unitID id.BloodUnitID) (*models.BloodUnit, error) {
	query := `SELECT ` + selectColumns + ` FROM blood_units WHERE id = $1`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, unitID.String())
	if err != nil {
		return nil, fmt.Errorf("find blood unit by id: %w", err)
	}
	units, err := scanPostgresRows(rows)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return units[0], nil
}

// ListByHolder uses idx_blood_units_lab_group / idx_blood_units_hospital_group.
func (s *PostgresStore) ListByHolder(ctx context.Context, holder models.Holder, group *models.BloodGroup) ([]*models.BloodUnit, error) {
	query := `SELECT ` + selectColumns + ` FROM blood_units WHERE ` + holderColumn(holder) + ` = $1`
	args := []any{holder.Facility().String()}
	if group != nil {
		query += ` AND blood_group = $2`
		args = append(args, string(*group))
	}
	query += ` ORDER BY expiry_date, id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood units by holder: %w", err)
	}
	return scanPostgresRows(rows)
}

// ListExpiringBefore uses idx_blood_units_expiry.
func (s *PostgresStore) ListExpiringBefore(ctx context.Context, cutoff time.Time, status models.Status) ([]*models.BloodUnit, error) {
	query := `SELECT ` + selectColumns + ` FROM blood_units
		WHERE expiry_date <= $1 AND status = $2
		ORDER BY expiry_date, id`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, cutoff, string(status))
	if err != nil {
		return nil, fmt.Errorf("list expiring blood units: %w", err)
	}
	return scanPostgresRows(rows)
}

func (s *PostgresStore) SumAvailableByHolder(ctx context.Context, holder models.Holder) (map[models.BloodGroup]models.Quantity, error) {
	query := `SELECT blood_group, COALESCE(SUM(quantity), 0) FROM blood_units
		WHERE ` + holderColumn(holder) + ` = $1 AND status = $2
		GROUP BY blood_group`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, holder.Facility().String(), string(models.StatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("sum blood units: %w", err)
	}
	defer rows.Close()
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

func scanPostgresRows(rows *sql.Rows) ([]*models.BloodUnit, error) {
	defer rows.Close()
	var units []*models.BloodUnit
	for rows.Next() {
		var r unitRow
		if err := rows.Scan(
			&r.ID, &r.BloodGroup, &r.Quantity, &r.ExpiryDate,
			&r.BloodLabRef, &r.HospitalRef, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan blood unit: %w", err)
		}
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

package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
	"revalid/pkg/sentinel"
)

// PostgresStore persists doctor records in PostgreSQL.
// This store is pure I/O; connection ownership rules and status derivation
// belong in the services.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed doctor store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const doctorColumns = `gmc_ref, first_name, last_name, submission_date, under_notice, sanction,
		designated_body_code, exists_in_gmc, admin, doctor_status, last_updated_date, gmc_last_updated_at`

func (s *PostgresStore) Get(ctx context.Context, ref id.GmcRef) (*models.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE gmc_ref = $1
	`
	record, err := scanDoctor(s.db.QueryRowContext(ctx, query, ref.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, d *models.Doctor) error {
	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (gmc_ref) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			submission_date = EXCLUDED.submission_date,
			under_notice = EXCLUDED.under_notice,
			sanction = EXCLUDED.sanction,
			designated_body_code = EXCLUDED.designated_body_code,
			exists_in_gmc = EXCLUDED.exists_in_gmc,
			admin = EXCLUDED.admin,
			doctor_status = EXCLUDED.doctor_status,
			last_updated_date = EXCLUDED.last_updated_date,
			gmc_last_updated_at = EXCLUDED.gmc_last_updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		d.GmcRef.String(), d.FirstName, d.LastName, d.SubmissionDate, string(d.UnderNotice), d.Sanction,
		nullString(d.DesignatedBodyCode), d.ExistsInGmc, d.Admin, string(d.Status), d.LastUpdatedDate, d.GmcLastUpdatedDateTime,
	)
	if err != nil {
		return fmt.Errorf("upsert doctor: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByBody(ctx context.Context, designatedBodyCode string) ([]*models.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE designated_body_code = $1
	`
	return s.queryDoctors(ctx, "find doctors by body", query, designatedBodyCode)
}

func (s *PostgresStore) FindStale(ctx context.Context, designatedBodyCode string, before time.Time) ([]*models.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE designated_body_code = $1
		  AND gmc_last_updated_at < $2
	`
	return s.queryDoctors(ctx, "find stale doctors", query, designatedBodyCode, before)
}

// Disconnect repeats the ownership and ordering checks inside the UPDATE's
// WHERE clause, so the guard and the write are one atomic statement against
// the latest committed row. A zero-row result means another collection job
// reassigned the doctor in the meantime and surfaces as ErrStaleWrite.
func (s *PostgresStore) Disconnect(ctx context.Context, ref id.GmcRef, designatedBodyCode string, requestTime time.Time) error {
	query := `
		UPDATE doctors
		SET designated_body_code = NULL,
			exists_in_gmc = FALSE,
			gmc_last_updated_at = $3,
			last_updated_date = $3
		WHERE gmc_ref = $1
		  AND designated_body_code = $2
		  AND gmc_last_updated_at < $3
	`
	res, err := s.db.ExecContext(ctx, query, ref.String(), designatedBodyCode, requestTime)
	if err != nil {
		return fmt.Errorf("disconnect doctor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("disconnect doctor: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrStaleWrite
	}
	return nil
}

func (s *PostgresStore) queryDoctors(ctx context.Context, op, query string, args ...any) ([]*models.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Doctor
	for rows.Next() {
		record, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row rowScanner) (*models.Doctor, error) {
	var (
		d        models.Doctor
		gmcRef   string
		notice   string
		status   string
		bodyCode sql.NullString
	)
	err := row.Scan(
		&gmcRef, &d.FirstName, &d.LastName, &d.SubmissionDate, &notice, &d.Sanction,
		&bodyCode, &d.ExistsInGmc, &d.Admin, &status, &d.LastUpdatedDate, &d.GmcLastUpdatedDateTime,
	)
	if err != nil {
		return nil, err
	}
	d.GmcRef = id.GmcRef(gmcRef)
	d.UnderNotice = models.UnderNotice(notice)
	d.Status = models.DoctorStatus(status)
	if bodyCode.Valid {
		d.DesignatedBodyCode = bodyCode.String
	}
	return &d, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

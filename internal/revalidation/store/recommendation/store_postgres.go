package recommendation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
	"revalid/pkg/sentinel"
)

// PostgresStore persists recommendation documents in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed recommendation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recColumns = `id, gmc_ref, recommendation_type, recommendation_status, outcome,
		deferral_date, deferral_reason, deferral_sub_reason,
		gmc_submission_date, actual_submission_date, gmc_revalidation_id, admin, comments`

func (s *PostgresStore) FindByID(ctx context.Context, recID id.RecommendationID) (*models.Recommendation, error) {
	query := `
		SELECT ` + recColumns + `
		FROM recommendations
		WHERE id = $1
	`
	record, err := scanRecommendation(s.db.QueryRowContext(ctx, query, uuid.UUID(recID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find recommendation: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Save(ctx context.Context, r *models.Recommendation) error {
	query := `
		INSERT INTO recommendations (` + recColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			recommendation_type = EXCLUDED.recommendation_type,
			recommendation_status = EXCLUDED.recommendation_status,
			outcome = EXCLUDED.outcome,
			deferral_date = EXCLUDED.deferral_date,
			deferral_reason = EXCLUDED.deferral_reason,
			deferral_sub_reason = EXCLUDED.deferral_sub_reason,
			actual_submission_date = EXCLUDED.actual_submission_date,
			gmc_revalidation_id = EXCLUDED.gmc_revalidation_id,
			admin = EXCLUDED.admin,
			comments = EXCLUDED.comments
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), r.GmcRef.String(), string(r.Type), string(r.Status), nullString(string(r.Outcome)),
		nullTime(r.DeferralDate), nullString(r.DeferralReason), nullString(r.DeferralSubReason),
		r.GmcSubmissionDate, r.ActualSubmissionDate, nullString(r.GmcRevalidationID), r.Admin, pq.Array(r.Comments),
	)
	if err != nil {
		return fmt.Errorf("save recommendation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindLiveByDoctor(ctx context.Context, ref id.GmcRef) ([]*models.Recommendation, error) {
	query := `
		SELECT ` + recColumns + `
		FROM recommendations
		WHERE gmc_ref = $1
		  AND (recommendation_status != 'SUBMITTED_TO_GMC' OR outcome = 'UNDER_REVIEW')
		ORDER BY actual_submission_date DESC, id
	`
	return s.queryRecommendations(ctx, "find live recommendations", query, ref.String())
}

func (s *PostgresStore) FindSubmitted(ctx context.Context) ([]*models.Recommendation, error) {
	query := `
		SELECT ` + recColumns + `
		FROM recommendations
		WHERE recommendation_status = 'SUBMITTED_TO_GMC'
		  AND outcome = 'UNDER_REVIEW'
		ORDER BY actual_submission_date DESC, id
	`
	return s.queryRecommendations(ctx, "find submitted recommendations", query)
}

func (s *PostgresStore) queryRecommendations(ctx context.Context, op, query string, args ...any) ([]*models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Recommendation
	for rows.Next() {
		record, err := scanRecommendation(rows)
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

func scanRecommendation(row rowScanner) (*models.Recommendation, error) {
	var (
		r         models.Recommendation
		recID     uuid.UUID
		gmcRef    string
		recType   string
		recStatus string
		outcome   sql.NullString
		defDate   sql.NullTime
		defReason sql.NullString
		defSub    sql.NullString
		revalID   sql.NullString
		comments  []string
	)
	err := row.Scan(
		&recID, &gmcRef, &recType, &recStatus, &outcome,
		&defDate, &defReason, &defSub,
		&r.GmcSubmissionDate, &r.ActualSubmissionDate, &revalID, &r.Admin, pq.Array(&comments),
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.RecommendationID(recID)
	r.GmcRef = id.GmcRef(gmcRef)
	r.Type = models.RecommendationType(recType)
	r.Status = models.RecommendationStatus(recStatus)
	r.Outcome = models.Outcome(outcome.String)
	if defDate.Valid {
		r.DeferralDate = defDate.Time
	}
	r.DeferralReason = defReason.String
	r.DeferralSubReason = defSub.String
	r.GmcRevalidationID = revalID.String
	r.Comments = comments
	return &r, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}

package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"revalid/internal/revalidation/models"
	id "revalid/pkg/domain"
)

// PostgresArchive persists snapshots in PostgreSQL. The table carries no
// UPDATE or DELETE path; each archived recommendation gets its own row keyed
// by a generated surrogate so resubmission cycles of the same recommendation
// id archive independently.
type PostgresArchive struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed snapshot archive.
func NewPostgres(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

func (s *PostgresArchive) Append(ctx context.Context, snap *models.Snapshot) error {
	query := `
		INSERT INTO recommendation_snapshots (
			recommendation_id, gmc_ref, recommendation_type, recommendation_status, outcome,
			deferral_date, deferral_reason, deferral_sub_reason,
			gmc_submission_date, actual_submission_date, gmc_revalidation_id, admin, comments, archived_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(snap.ID), snap.GmcRef.String(), string(snap.Type), string(snap.Status), string(snap.Outcome),
		nullTime(snap.DeferralDate), nullString(snap.DeferralReason), nullString(snap.DeferralSubReason),
		snap.GmcSubmissionDate, snap.ActualSubmissionDate, nullString(snap.GmcRevalidationID),
		snap.Admin, pq.Array(snap.Comments), snap.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

func (s *PostgresArchive) FindByDoctor(ctx context.Context, ref id.GmcRef) ([]*models.Snapshot, error) {
	query := `
		SELECT recommendation_id, gmc_ref, recommendation_type, recommendation_status, outcome,
			deferral_date, deferral_reason, deferral_sub_reason,
			gmc_submission_date, actual_submission_date, gmc_revalidation_id, admin, comments, archived_at
		FROM recommendation_snapshots
		WHERE gmc_ref = $1
		ORDER BY actual_submission_date DESC, recommendation_id
	`
	rows, err := s.db.QueryContext(ctx, query, ref.String())
	if err != nil {
		return nil, fmt.Errorf("find snapshots: %w", err)
	}
	defer rows.Close()

	var out []*models.Snapshot
	for rows.Next() {
		var (
			snap      models.Snapshot
			recID     uuid.UUID
			gmcRef    string
			recType   string
			recStatus string
			outcome   string
			defDate   sql.NullTime
			defReason sql.NullString
			defSub    sql.NullString
			revalID   sql.NullString
			comments  []string
		)
		err := rows.Scan(
			&recID, &gmcRef, &recType, &recStatus, &outcome,
			&defDate, &defReason, &defSub,
			&snap.GmcSubmissionDate, &snap.ActualSubmissionDate, &revalID,
			&snap.Admin, pq.Array(&comments), &snap.ArchivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("find snapshots: %w", err)
		}
		snap.ID = id.RecommendationID(recID)
		snap.GmcRef = id.GmcRef(gmcRef)
		snap.Type = models.RecommendationType(recType)
		snap.Status = models.RecommendationStatus(recStatus)
		snap.Outcome = models.Outcome(outcome)
		if defDate.Valid {
			snap.DeferralDate = defDate.Time
		}
		snap.DeferralReason = defReason.String
		snap.DeferralSubReason = defSub.String
		snap.GmcRevalidationID = revalID.String
		snap.Comments = comments
		out = append(out, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find snapshots: %w", err)
	}
	return out, nil
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

// Package connection implements the connection reconciliation engine. It
// ingests full-roster collected events from per-designated-body collection
// jobs and detects disconnections without racing against jobs that may be
// concurrently reconnecting the same doctor to a different body.
package connection

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"revalid/internal/revalidation/metrics"
	"revalid/internal/revalidation/models"
	"revalid/internal/revalidation/ports"
	dErrors "revalid/pkg/domain-errors"
	"revalid/pkg/requestcontext"
	"revalid/pkg/sentinel"
)

var tracer = otel.Tracer("revalid/connection")

// Service applies roster collected events to the doctor record store.
type Service struct {
	doctors  ports.DoctorStore
	recs     ports.RecommendationStore
	archive  ports.SnapshotArchive
	logger   *slog.Logger
	metrics  *metrics.Metrics
	notifier ports.SyncNotifier
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSyncNotifier(n ports.SyncNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// New constructs a Service. The recommendation store and archive are read
// only, to rederive doctor status on upsert.
func New(doctors ports.DoctorStore, recs ports.RecommendationStore, archive ports.SnapshotArchive, opts ...Option) (*Service, error) {
	if doctors == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "doctor store is required")
	}
	if recs == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "recommendation store is required")
	}
	if archive == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "snapshot archive is required")
	}

	s := &Service{
		doctors: doctors,
		recs:    recs,
		archive: archive,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Apply processes one roster collected event: upserts every reported doctor,
// then sweeps for doctors this body no longer reports. Safe to run
// concurrently with events for other designated bodies, and idempotent under
// redelivery of the same event.
func (s *Service) Apply(ctx context.Context, event *models.RosterCollectedEvent) error {
	ctx, span := tracer.Start(ctx, "connection.apply_roster", trace.WithAttributes(
		attribute.String("designated_body_code", event.DesignatedBodyCode),
		attribute.Int("roster_size", len(event.Doctors)),
	))
	defer span.End()

	if event.DesignatedBodyCode == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "designated body code is required")
	}
	if event.RequestDateTime.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "request date time is required")
	}

	if err := s.applyRoster(ctx, event); err != nil {
		return err
	}
	return s.sweepStale(ctx, event)
}

// applyRoster upserts every roster entry. The roster is authoritative for the
// doctor's connection to this body as of RequestDateTime, but the causal
// token never moves backwards: an out-of-order event must not overwrite a
// newer connection.
func (s *Service) applyRoster(ctx context.Context, event *models.RosterCollectedEvent) error {
	upserted := 0
	for i := range event.Doctors {
		entry := &event.Doctors[i]

		doctor, err := s.doctors.Get(ctx, entry.GmcRef)
		if errors.Is(err, sentinel.ErrNotFound) {
			// First sighting in any roster creates the record.
			doctor = &models.Doctor{GmcRef: entry.GmcRef}
		} else if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load doctor")
		} else if doctor.GmcLastUpdatedDateTime.After(event.RequestDateTime) {
			s.logger.InfoContext(ctx, "skipping stale roster entry",
				"gmc_ref", entry.GmcRef,
				"designated_body_code", event.DesignatedBodyCode,
				"request_date_time", event.RequestDateTime,
			)
			continue
		}

		doctor.FirstName = entry.FirstName
		doctor.LastName = entry.LastName
		doctor.SubmissionDate = entry.SubmissionDate
		doctor.UnderNotice = entry.UnderNotice
		doctor.Sanction = entry.Sanction
		doctor.DesignatedBodyCode = event.DesignatedBodyCode
		doctor.ExistsInGmc = true
		doctor.GmcLastUpdatedDateTime = event.RequestDateTime
		doctor.LastUpdatedDate = requestcontext.Now(ctx)
		doctor.Status = s.deriveStatus(ctx, doctor)

		if err := s.doctors.Upsert(ctx, doctor); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to upsert doctor")
		}
		if s.notifier != nil {
			s.notifier.DoctorChanged(ctx, doctor)
		}
		upserted++
	}

	if s.metrics != nil {
		s.metrics.IncrementRostersApplied()
		s.metrics.AddRosterDoctorsUpserted(upserted)
	}
	return nil
}

// sweepStale disconnects doctors this body's roster no longer reports.
//
// The stale query alone is not enough to decide a disconnect: between the
// query and the write, a concurrently-running job for a different body may
// have reassigned the doctor. The store's Disconnect therefore re-checks
// ownership and ordering against the latest committed record in one atomic
// step; a lost guard is a legitimate race, not an error.
func (s *Service) sweepStale(ctx context.Context, event *models.RosterCollectedEvent) error {
	candidates, err := s.doctors.FindStale(ctx, event.DesignatedBodyCode, event.RequestDateTime)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to query stale doctors")
	}

	for _, candidate := range candidates {
		err := s.doctors.Disconnect(ctx, candidate.GmcRef, event.DesignatedBodyCode, event.RequestDateTime)
		if err != nil && !errors.Is(err, sentinel.ErrStaleWrite) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to disconnect doctor")
		}
		if errors.Is(err, sentinel.ErrStaleWrite) {
			s.logger.InfoContext(ctx, "disconnect skipped, doctor concurrently reassigned",
				"gmc_ref", candidate.GmcRef,
				"designated_body_code", event.DesignatedBodyCode,
				"request_date_time", event.RequestDateTime,
			)
			if s.metrics != nil {
				s.metrics.IncrementDisconnectRaceSkips()
			}
			continue
		}

		s.logger.InfoContext(ctx, "doctor disconnected",
			"gmc_ref", candidate.GmcRef,
			"designated_body_code", event.DesignatedBodyCode,
		)
		if s.metrics != nil {
			s.metrics.IncrementDoctorsDisconnected()
		}
		if s.notifier != nil {
			if current, err := s.doctors.Get(ctx, candidate.GmcRef); err == nil {
				s.notifier.DoctorChanged(ctx, current)
			}
		}
	}
	return nil
}

// deriveStatus recomputes the derived status for an upserted doctor. Failures
// to read history degrade to the doctor's existing status rather than
// blocking roster application.
func (s *Service) deriveStatus(ctx context.Context, doctor *models.Doctor) models.DoctorStatus {
	live, err := s.recs.FindLiveByDoctor(ctx, doctor.GmcRef)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load live recommendations for status derivation",
			"gmc_ref", doctor.GmcRef, "error", err)
		return doctor.Status
	}
	archived, err := s.archive.FindByDoctor(ctx, doctor.GmcRef)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load archive for status derivation",
			"gmc_ref", doctor.GmcRef, "error", err)
		return doctor.Status
	}
	return models.DeriveStatus(doctor.UnderNotice, models.MostRecent(live, archived))
}

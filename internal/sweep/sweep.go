// Package sweep implements the periodic reminder pass: evaluate every person
// on the roster against the deadline policies and notify whoever needs
// nagging.
//
// Notification mode is per-person direct: each flagged condition produces a
// tailored message to the person and a one-line mirrored notice to the duty
// officer. A person with several flagged categories receives several
// messages in one pass. There is no cross-pass deduplication: an expired
// clearance is re-flagged every day until the record changes.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"aircrew/internal/audit"
	"aircrew/internal/notify"
	"aircrew/internal/platform/metrics"
	"aircrew/internal/policy"
	"aircrew/internal/roster/models"
	"aircrew/internal/roster/store"
	"aircrew/pkg/requestcontext"
)

// Store is the read-only slice of the roster the sweep consumes.
type Store interface {
	ListPersons(ctx context.Context) ([]*models.Person, error)
	GetMedical(ctx context.Context, personID int64) (*models.MedicalRecord, error)
	GetProficiency(ctx context.Context, personID int64) (*models.ProficiencyRecord, error)
	GetVacation(ctx context.Context, personID int64) (*models.VacationRecord, error)
}

// Report summarizes one sweep pass.
type Report struct {
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	PersonsChecked int            `json:"persons_checked"`
	Flagged        int            `json:"flagged"`
	Sent           int            `json:"sent"`
	Failures       int            `json:"failures"`
	ByCategory     map[string]int `json:"by_category"`
}

// Service runs the reminder sweep.
type Service struct {
	store        Store
	notifier     notify.Notifier
	adminChatID  int64
	interval     time.Duration
	errorBackoff time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
	audit        audit.Publisher
	tracer       trace.Tracer
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

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

// WithInterval overrides the pause between passes (default 24h).
func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		s.interval = d
	}
}

// WithErrorBackoff overrides the shortened pause after a failed pass
// (default 1h).
func WithErrorBackoff(d time.Duration) Option {
	return func(s *Service) {
		s.errorBackoff = d
	}
}

// New constructs the sweep service. adminChatID is the privileged recipient
// for mirrored notices; zero disables mirroring.
func New(st Store, notifier notify.Notifier, adminChatID int64, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("sweep store is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	s := &Service{
		store:        st,
		notifier:     notifier,
		adminChatID:  adminChatID,
		interval:     24 * time.Hour,
		errorBackoff: time.Hour,
		logger:       slog.Default(),
		tracer:       otel.Tracer("aircrew/sweep"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run loops forever: one pass, then sleep. A failed pass shortens the sleep
// to the error backoff instead of terminating. Returns only when ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	for {
		wait := s.interval
		if _, err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.ErrorContext(ctx, "sweep pass failed", "error", err, "retry_in", s.errorBackoff)
			if s.metrics != nil {
				s.metrics.SweepFailures.Inc()
			}
			wait = s.errorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce performs a single sweep pass. Every evaluation within the pass
// sees the same calendar day, pinned from the pass start time (or from a
// time already pinned on ctx, which tests use).
func (s *Service) RunOnce(ctx context.Context) (*Report, error) {
	start := time.Now()
	now := policy.DateOnly(requestcontext.Now(ctx))
	ctx = requestcontext.WithTime(ctx, now)

	ctx, span := s.tracer.Start(ctx, "sweep.run")
	defer span.End()

	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}

	report := &Report{
		StartedAt:  start,
		ByCategory: make(map[string]int),
	}
	if s.metrics != nil {
		s.metrics.PersonsTracked.Set(float64(len(persons)))
	}

	for _, person := range persons {
		report.PersonsChecked++
		findings, err := s.evaluatePerson(ctx, person, now)
		if err != nil {
			// One broken person record must not starve the rest.
			s.logger.ErrorContext(ctx, "person evaluation failed",
				"person_id", person.ID, "error", err)
			continue
		}
		for _, f := range findings {
			report.Flagged++
			report.ByCategory[f.Category]++
			s.dispatch(ctx, person, f, report)
		}
	}

	report.Duration = time.Since(start)
	if s.metrics != nil {
		s.metrics.SweepsTotal.Inc()
		s.metrics.SweepDuration.Observe(report.Duration.Seconds())
	}
	span.SetAttributes(
		attribute.Int("sweep.persons", report.PersonsChecked),
		attribute.Int("sweep.flagged", report.Flagged),
		attribute.Int("sweep.failures", report.Failures),
	)
	s.logger.InfoContext(ctx, "sweep finished",
		"persons", report.PersonsChecked,
		"flagged", report.Flagged,
		"sent", report.Sent,
		"failures", report.Failures,
		"duration", report.Duration,
	)
	return report, nil
}

// evaluatePerson runs all three policies for one person. A missing record
// for a category is not an error, the category is skipped.
func (s *Service) evaluatePerson(ctx context.Context, person *models.Person, now time.Time) ([]Finding, error) {
	var findings []Finding

	medical, err := s.fetchMedical(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	if medical != nil {
		status := policy.EvaluateClearance(medical.VLKDate, medical.HasFollowup(), now)
		findings = append(findings, clearanceFindings(medical, status)...)
	}

	proficiency, err := s.fetchProficiency(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	if proficiency != nil {
		if proficiency.Exercise4Date != nil {
			status := policy.EvaluateExercise(*proficiency.Exercise4Date, models.Exercise4ValidMonths, now)
			findings = append(findings, exerciseFindings(models.Exercise4, status)...)
		}
		if proficiency.Exercise7Date != nil {
			status := policy.EvaluateExercise(*proficiency.Exercise7Date, models.Exercise7ValidMonths, now)
			findings = append(findings, exerciseFindings(models.Exercise7, status)...)
		}
	}

	vacation, err := s.fetchVacation(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	if vacation != nil {
		status := policy.EvaluateVacation(vacation.EndDate, now)
		findings = append(findings, vacationFindings(status)...)
	}

	return findings, nil
}

// dispatch sends the tailored message to the person and mirrors a short
// notice to the duty officer. Failures are logged and counted, never
// propagated: a blocked recipient must not abort the pass.
func (s *Service) dispatch(ctx context.Context, person *models.Person, f Finding, report *Report) {
	ctx, span := s.tracer.Start(ctx, "sweep.notify",
		trace.WithAttributes(attribute.String("category", f.Category)))
	defer span.End()

	if err := s.notifier.Send(ctx, person.ID, f.PersonText); err != nil {
		report.Failures++
		s.countDelivery(f.Category, false)
		s.emit(ctx, audit.Event{
			Action:   audit.EventReminderFailed,
			PersonID: person.ID,
			Category: f.Category,
			Detail:   err.Error(),
		})
		s.logger.WarnContext(ctx, "reminder delivery failed",
			"person_id", person.ID, "category", f.Category, "error", err)
	} else {
		report.Sent++
		s.countDelivery(f.Category, true)
		s.emit(ctx, audit.Event{
			Action:   audit.EventReminderSent,
			PersonID: person.ID,
			Category: f.Category,
		})
	}

	if s.adminChatID == 0 {
		return
	}
	mirror := f.Marker + " " + person.FullName() + " — " + f.AdminText
	if err := s.notifier.Send(ctx, s.adminChatID, mirror); err != nil {
		report.Failures++
		s.logger.WarnContext(ctx, "duty officer mirror failed",
			"person_id", person.ID, "category", f.Category, "error", err)
	}
}

func (s *Service) fetchMedical(ctx context.Context, id int64) (*models.MedicalRecord, error) {
	rec, err := s.store.GetMedical(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get medical: %w", err)
	}
	return rec, nil
}

func (s *Service) fetchProficiency(ctx context.Context, id int64) (*models.ProficiencyRecord, error) {
	rec, err := s.store.GetProficiency(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get proficiency: %w", err)
	}
	return rec, nil
}

func (s *Service) fetchVacation(ctx context.Context, id int64) (*models.VacationRecord, error) {
	rec, err := s.store.GetVacation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vacation: %w", err)
	}
	return rec, nil
}

func (s *Service) countDelivery(category string, ok bool) {
	if s.metrics == nil {
		return
	}
	if ok {
		s.metrics.NotificationsSent.WithLabelValues(category).Inc()
	} else {
		s.metrics.DeliveryFailures.WithLabelValues(category).Inc()
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

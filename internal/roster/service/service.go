// Package service is the validated write surface over the roster store,
// shared by conversational intake and the admin API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"aircrew/internal/audit"
	"aircrew/internal/platform/metrics"
	"aircrew/internal/policy"
	"aircrew/internal/roster/models"
	"aircrew/internal/roster/store"
	derrors "aircrew/pkg/domain-errors"
	"aircrew/pkg/requestcontext"
)

// Profile bundles a person with all category records; absent records are nil.
type Profile struct {
	Person      *models.Person            `json:"person"`
	Medical     *models.MedicalRecord     `json:"medical,omitempty"`
	Proficiency *models.ProficiencyRecord `json:"proficiency,omitempty"`
	Vacation    *models.VacationRecord    `json:"vacation,omitempty"`
}

// Service orchestrates roster reads and writes.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Publisher
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

// New constructs a Service.
func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("roster store is required")
	}
	s := &Service{
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterPerson creates a new roster entry. The id must not already exist.
func (s *Service) RegisterPerson(ctx context.Context, p *models.Person) error {
	if err := validateName(p.Surname, "surname"); err != nil {
		return err
	}
	if err := validateName(p.Name, "name"); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = requestcontext.Now(ctx)
	}

	if err := s.store.CreatePerson(ctx, p); err != nil {
		if derrors.Is(err, derrors.CodeConflict) {
			return err
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to create person")
	}

	s.countWrite("person")
	if s.metrics != nil {
		s.metrics.PersonsTracked.Inc()
	}
	s.emit(ctx, audit.Event{Action: audit.EventPersonRegistered, PersonID: p.ID})
	s.logger.InfoContext(ctx, "person registered", "person_id", p.ID)
	return nil
}

// UpdatePerson replaces the mutable name/rank fields. The id is immutable.
func (s *Service) UpdatePerson(ctx context.Context, p *models.Person) error {
	if err := validateName(p.Surname, "surname"); err != nil {
		return err
	}
	if err := validateName(p.Name, "name"); err != nil {
		return err
	}
	if err := s.store.UpdatePerson(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "person not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to update person")
	}
	s.emit(ctx, audit.Event{Action: audit.EventPersonUpdated, PersonID: p.ID})
	return nil
}

// DeletePerson removes the person and every dependent record.
func (s *Service) DeletePerson(ctx context.Context, id int64) error {
	if err := s.store.DeletePerson(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "person not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to delete person")
	}
	if s.metrics != nil {
		s.metrics.PersonsTracked.Dec()
	}
	s.emit(ctx, audit.Event{Action: audit.EventPersonDeleted, PersonID: id})
	s.logger.InfoContext(ctx, "person deleted", "person_id", id)
	return nil
}

// ListPersons returns the whole roster in store order.
func (s *Service) ListPersons(ctx context.Context) ([]*models.Person, error) {
	persons, err := s.store.ListPersons(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list persons")
	}
	return persons, nil
}

// Profile loads a person with all category records. Absent categories are
// nil, not errors.
func (s *Service) Profile(ctx context.Context, id int64) (*Profile, error) {
	person, err := s.store.GetPerson(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "person not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load person")
	}

	profile := &Profile{Person: person}
	if profile.Medical, err = ignoreAbsent(s.store.GetMedical(ctx, id)); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load medical record")
	}
	if profile.Proficiency, err = ignoreAbsent(s.store.GetProficiency(ctx, id)); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load proficiency record")
	}
	if profile.Vacation, err = ignoreAbsent(s.store.GetVacation(ctx, id)); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load vacation record")
	}
	return profile, nil
}

// SetMedical records the clearance exam date and the optional follow-up
// review date. A follow-up earlier than the exam is rejected.
func (s *Service) SetMedical(ctx context.Context, personID int64, vlkDate time.Time, umoDate *time.Time) error {
	rec := &models.MedicalRecord{
		PersonID: personID,
		VLKDate:  policy.DateOnly(vlkDate),
	}
	if umoDate != nil {
		d := policy.DateOnly(*umoDate)
		if d.Before(rec.VLKDate) {
			return derrors.New(derrors.CodeValidation, "follow-up review date cannot precede the clearance exam date")
		}
		rec.UMODate = &d
	}

	if err := s.store.UpsertMedical(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "person not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to save medical record")
	}
	s.countWrite("medical")
	s.emit(ctx, audit.Event{Action: audit.EventRecordUpdated, PersonID: personID, Category: "medical"})
	return nil
}

// SetExercise records one proficiency check date without touching the other
// slot.
func (s *Service) SetExercise(ctx context.Context, personID int64, exercise int, date time.Time) error {
	if models.ExerciseValidMonths(exercise) == 0 {
		return derrors.Newf(derrors.CodeValidation, "unknown exercise %d", exercise)
	}
	if err := s.store.SetExercise(ctx, personID, exercise, policy.DateOnly(date)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "person not found")
		}
		if derrors.Is(err, derrors.CodeValidation) {
			return err
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to save proficiency record")
	}
	kind := "exercise" + strconv.Itoa(exercise)
	s.countWrite(kind)
	s.emit(ctx, audit.Event{Action: audit.EventRecordUpdated, PersonID: personID, Category: kind})
	return nil
}

// SetVacation records a vacation period, replacing any previous one. Days is
// the inclusive count of calendar days.
func (s *Service) SetVacation(ctx context.Context, personID int64, start, end time.Time) error {
	startDay := policy.DateOnly(start)
	endDay := policy.DateOnly(end)
	if endDay.Before(startDay) {
		return derrors.New(derrors.CodeValidation, "vacation end date cannot precede its start date")
	}

	rec := &models.VacationRecord{
		PersonID:  personID,
		StartDate: startDay,
		EndDate:   endDay,
		Days:      policy.DaysBetween(startDay, endDay) + 1,
	}
	if err := s.store.UpsertVacation(ctx, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "person not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to save vacation record")
	}
	s.countWrite("vacation")
	s.emit(ctx, audit.Event{
		Action:   audit.EventRecordUpdated,
		PersonID: personID,
		Category: "vacation",
		Detail:   fmt.Sprintf("%d days", rec.Days),
	})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (s *Service) countWrite(kind string) {
	if s.metrics != nil {
		s.metrics.RecordsWritten.WithLabelValues(kind).Inc()
	}
}

func validateName(value, field string) error {
	if utf8.RuneCountInString(value) < 2 {
		return derrors.Newf(derrors.CodeValidation, "%s must be at least 2 characters", field)
	}
	return nil
}

func ignoreAbsent[T any](rec *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

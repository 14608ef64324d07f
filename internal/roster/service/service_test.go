package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aircrew/internal/audit"
	"aircrew/internal/roster/models"
	"aircrew/internal/roster/store"
	derrors "aircrew/pkg/domain-errors"
)

type RosterServiceSuite struct {
	suite.Suite
	store   *store.MemoryStore
	audit   *audit.MemoryPublisher
	service *Service
	ctx     context.Context
}

func TestRosterServiceSuite(t *testing.T) {
	suite.Run(t, new(RosterServiceSuite))
}

func (s *RosterServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.audit = audit.NewMemory()
	s.ctx = context.Background()

	var err error
	s.service, err = New(s.store, WithAuditPublisher(s.audit))
	s.Require().NoError(err)
}

func (s *RosterServiceSuite) register(id int64) {
	err := s.service.RegisterPerson(s.ctx, &models.Person{ID: id, Surname: "Petrov", Name: "Ivan"})
	s.Require().NoError(err)
}

func (s *RosterServiceSuite) TestNew() {
	_, err := New(nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "roster store is required")
}

func (s *RosterServiceSuite) TestRegisterPerson() {
	s.Run("short surname rejected", func() {
		err := s.service.RegisterPerson(s.ctx, &models.Person{ID: 1, Surname: "P", Name: "Ivan"})
		s.True(derrors.Is(err, derrors.CodeValidation))
	})

	s.Run("created with audit event", func() {
		s.register(1)
		s.Len(s.audit.ByAction(audit.EventPersonRegistered), 1)

		p, err := s.store.GetPerson(s.ctx, 1)
		s.Require().NoError(err)
		s.False(p.CreatedAt.IsZero())
	})

	s.Run("duplicate conflicts", func() {
		err := s.service.RegisterPerson(s.ctx, &models.Person{ID: 1, Surname: "Petrov", Name: "Ivan"})
		s.True(derrors.Is(err, derrors.CodeConflict))
	})
}

func (s *RosterServiceSuite) TestSetMedicalValidation() {
	s.register(2)
	vlk := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	s.Run("follow-up before exam rejected", func() {
		umo := vlk.AddDate(0, 0, -1)
		err := s.service.SetMedical(s.ctx, 2, vlk, &umo)
		s.True(derrors.Is(err, derrors.CodeValidation))
	})

	s.Run("valid pair stored date-only", func() {
		umo := vlk.AddDate(0, 6, 0).Add(15 * time.Hour)
		err := s.service.SetMedical(s.ctx, 2, vlk.Add(9*time.Hour), &umo)
		s.Require().NoError(err)

		rec, err := s.store.GetMedical(s.ctx, 2)
		s.Require().NoError(err)
		s.Equal(vlk, rec.VLKDate)
		s.Require().NotNil(rec.UMODate)
		s.Equal(vlk.AddDate(0, 6, 0), *rec.UMODate)
	})

	s.Run("unknown person", func() {
		err := s.service.SetMedical(s.ctx, 404, vlk, nil)
		s.True(derrors.Is(err, derrors.CodeNotFound))
	})
}

func (s *RosterServiceSuite) TestSetExercise() {
	s.register(3)
	date := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.service.SetExercise(s.ctx, 3, models.Exercise4, date))
	err := s.service.SetExercise(s.ctx, 3, 9, date)
	s.True(derrors.Is(err, derrors.CodeValidation))

	events := s.audit.ByAction(audit.EventRecordUpdated)
	s.Require().Len(events, 1)
	s.Equal("exercise4", events[0].Category)
}

func (s *RosterServiceSuite) TestSetVacationInclusiveDays() {
	s.register(4)
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.service.SetVacation(s.ctx, 4, start, end))

	rec, err := s.store.GetVacation(s.ctx, 4)
	s.Require().NoError(err)
	s.Equal(10, rec.Days)

	s.Run("single day counts as one", func() {
		s.Require().NoError(s.service.SetVacation(s.ctx, 4, start, start))
		rec, err := s.store.GetVacation(s.ctx, 4)
		s.Require().NoError(err)
		s.Equal(1, rec.Days)
	})

	s.Run("end before start rejected", func() {
		err := s.service.SetVacation(s.ctx, 4, end, start)
		s.True(derrors.Is(err, derrors.CodeValidation))
	})
}

func (s *RosterServiceSuite) TestProfileAbsentCategoriesAreNil() {
	s.register(5)

	profile, err := s.service.Profile(s.ctx, 5)
	s.Require().NoError(err)
	s.NotNil(profile.Person)
	s.Nil(profile.Medical)
	s.Nil(profile.Proficiency)
	s.Nil(profile.Vacation)

	_, err = s.service.Profile(s.ctx, 404)
	s.True(derrors.Is(err, derrors.CodeNotFound))
}

func (s *RosterServiceSuite) TestDeletePersonCascades() {
	s.register(6)
	s.Require().NoError(s.service.SetMedical(s.ctx, 6, time.Now(), nil))
	s.Require().NoError(s.service.SetVacation(s.ctx, 6, time.Now(), time.Now()))

	s.Require().NoError(s.service.DeletePerson(s.ctx, 6))
	s.Len(s.audit.ByAction(audit.EventPersonDeleted), 1)

	_, err := s.service.Profile(s.ctx, 6)
	s.True(derrors.Is(err, derrors.CodeNotFound))

	persons, err := s.service.ListPersons(s.ctx)
	s.Require().NoError(err)
	s.Empty(persons)
}

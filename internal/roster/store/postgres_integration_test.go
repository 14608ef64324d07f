//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aircrew/internal/roster/models"
	"aircrew/internal/roster/store"
	"aircrew/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	store   *store.PostgresStore
	ctx     context.Context
	created time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())

	var err error
	s.store, err = store.NewPostgres(s.ctx, s.pg.DB)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx,
		`TRUNCATE persons, medical, proficiency, vacation CASCADE`)
	s.Require().NoError(err)
	s.created = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// addPerson assigns strictly increasing creation times so list order is
// deterministic.
func (s *PostgresStoreSuite) addPerson(id int64, surname string) {
	s.created = s.created.Add(time.Minute)
	err := s.store.CreatePerson(s.ctx, &models.Person{
		ID:        id,
		Surname:   surname,
		Name:      "Ivan",
		Rank:      "captain",
		CreatedAt: s.created,
	})
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCreateAndGetPerson() {
	s.addPerson(1, "Ivanov")

	got, err := s.store.GetPerson(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Ivanov", got.Surname)
	s.Equal("captain", got.Rank)
}

func (s *PostgresStoreSuite) TestCreateDuplicateConflicts() {
	s.addPerson(1, "Ivanov")

	err := s.store.CreatePerson(s.ctx, &models.Person{
		ID: 1, Surname: "Petrov", Name: "Petr", CreatedAt: time.Now(),
	})
	s.Require().Error(err)
}

func (s *PostgresStoreSuite) TestGetMissingPerson() {
	_, err := s.store.GetPerson(s.ctx, 404)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdatePerson() {
	s.addPerson(1, "Ivanov")

	err := s.store.UpdatePerson(s.ctx, &models.Person{
		ID: 1, Surname: "Ivanov", Name: "Ivan", Rank: "major",
	})
	s.Require().NoError(err)

	got, err := s.store.GetPerson(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("major", got.Rank)
}

func (s *PostgresStoreSuite) TestListPersonsInsertionOrder() {
	s.addPerson(3, "Tretyakov")
	s.addPerson(1, "Ivanov")
	s.addPerson(2, "Petrov")

	persons, err := s.store.ListPersons(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(persons, 3)
	s.Equal("Tretyakov", persons[0].Surname)
	s.Equal("Ivanov", persons[1].Surname)
	s.Equal("Petrov", persons[2].Surname)
}

func (s *PostgresStoreSuite) TestMedicalUpsertReplaces() {
	s.addPerson(1, "Ivanov")

	first := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	err := s.store.UpsertMedical(s.ctx, &models.MedicalRecord{PersonID: 1, VLKDate: first})
	s.Require().NoError(err)

	second := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	umo := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	err = s.store.UpsertMedical(s.ctx, &models.MedicalRecord{PersonID: 1, VLKDate: second, UMODate: &umo})
	s.Require().NoError(err)

	got, err := s.store.GetMedical(s.ctx, 1)
	s.Require().NoError(err)
	s.True(got.VLKDate.Equal(second))
	s.Require().NotNil(got.UMODate)
	s.True(got.UMODate.Equal(umo))
}

func (s *PostgresStoreSuite) TestMedicalRequiresPerson() {
	err := s.store.UpsertMedical(s.ctx, &models.MedicalRecord{
		PersonID: 404,
		VLKDate:  time.Now(),
	})
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExerciseSlotsIndependent() {
	s.addPerson(1, "Ivanov")

	date4 := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	date7 := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.SetExercise(s.ctx, 1, models.Exercise4, date4))
	s.Require().NoError(s.store.SetExercise(s.ctx, 1, models.Exercise7, date7))

	got, err := s.store.GetProficiency(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(got.Exercise4Date)
	s.Require().NotNil(got.Exercise7Date)
	s.True(got.Exercise4Date.Equal(date4))
	s.True(got.Exercise7Date.Equal(date7))

	// Overwriting one slot leaves the other alone.
	later := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.SetExercise(s.ctx, 1, models.Exercise4, later))

	got, err = s.store.GetProficiency(s.ctx, 1)
	s.Require().NoError(err)
	s.True(got.Exercise4Date.Equal(later))
	s.True(got.Exercise7Date.Equal(date7))
}

func (s *PostgresStoreSuite) TestVacationOverwrite() {
	s.addPerson(1, "Ivanov")

	err := s.store.UpsertVacation(s.ctx, &models.VacationRecord{
		PersonID:  1,
		StartDate: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC),
		Days:      20,
	})
	s.Require().NoError(err)

	err = s.store.UpsertVacation(s.ctx, &models.VacationRecord{
		PersonID:  1,
		StartDate: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		Days:      10,
	})
	s.Require().NoError(err)

	got, err := s.store.GetVacation(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(10, got.Days)
	s.Equal(2025, got.StartDate.Year())
}

func (s *PostgresStoreSuite) TestDeleteCascades() {
	s.addPerson(1, "Ivanov")
	s.Require().NoError(s.store.UpsertMedical(s.ctx, &models.MedicalRecord{
		PersonID: 1,
		VLKDate:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}))
	s.Require().NoError(s.store.SetExercise(s.ctx, 1, models.Exercise4,
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))

	s.Require().NoError(s.store.DeletePerson(s.ctx, 1))

	_, err := s.store.GetPerson(s.ctx, 1)
	s.ErrorIs(err, store.ErrNotFound)
	_, err = s.store.GetMedical(s.ctx, 1)
	s.ErrorIs(err, store.ErrNotFound)
	_, err = s.store.GetProficiency(s.ctx, 1)
	s.ErrorIs(err, store.ErrNotFound)
}

package sweep

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aircrew/internal/audit"
	"aircrew/internal/notify"
	"aircrew/internal/roster/models"
	"aircrew/internal/roster/store"
	"aircrew/pkg/requestcontext"
)

const adminChat int64 = 9000

var now = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

type SweepSuite struct {
	suite.Suite
	store    *store.MemoryStore
	notifier *notify.Memory
	audit    *audit.MemoryPublisher
	service  *Service
	ctx      context.Context
}

func TestSweepSuite(t *testing.T) {
	suite.Run(t, new(SweepSuite))
}

func (s *SweepSuite) SetupTest() {
	s.store = store.NewMemory()
	s.notifier = notify.NewMemory()
	s.audit = audit.NewMemory()
	s.ctx = requestcontext.WithTime(context.Background(), now)

	var err error
	s.service, err = New(s.store, s.notifier, adminChat,
		WithAuditPublisher(s.audit),
	)
	s.Require().NoError(err)
}

func (s *SweepSuite) addPerson(id int64, surname string) {
	err := s.store.CreatePerson(context.Background(), &models.Person{
		ID: id, Surname: surname, Name: "Ivan", CreatedAt: now,
	})
	s.Require().NoError(err)
}

func (s *SweepSuite) addMedical(id int64, vlkDaysAgo int, withUMO bool) {
	rec := &models.MedicalRecord{PersonID: id, VLKDate: now.AddDate(0, 0, -vlkDaysAgo)}
	if withUMO {
		umo := rec.VLKDate.AddDate(0, 3, 0)
		rec.UMODate = &umo
	}
	s.Require().NoError(s.store.UpsertMedical(context.Background(), rec))
}

func (s *SweepSuite) TestNew() {
	_, err := New(nil, s.notifier, adminChat)
	s.Error(err)
	_, err = New(s.store, nil, adminChat)
	s.Error(err)
}

func (s *SweepSuite) TestEmptyRosterIsQuiet() {
	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(report.PersonsChecked)
	s.Zero(report.Flagged)
	s.Empty(s.notifier.Sent())
}

func (s *SweepSuite) TestPersonWithoutRecordsIsSkipped() {
	s.addPerson(1, "Petrov")

	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.PersonsChecked)
	s.Zero(report.Flagged)
	s.Empty(s.notifier.Sent())
}

func (s *SweepSuite) TestExpiredClearanceFlagsAndMirrors() {
	s.addPerson(1, "Petrov")
	s.addMedical(1, 370, false)

	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Flagged)
	s.Equal(1, report.ByCategory[CategoryVLK])
	s.Equal(1, report.Sent)

	personMsgs := s.notifier.SentTo(1)
	s.Require().Len(personMsgs, 1)
	s.Contains(personMsgs[0].Text, "ВЛК истекла")

	mirrors := s.notifier.SentTo(adminChat)
	s.Require().Len(mirrors, 1)
	s.Contains(mirrors[0].Text, "Petrov Ivan")

	s.Len(s.audit.ByAction(audit.EventReminderSent), 1)
}

func (s *SweepSuite) TestFollowupRequired() {
	s.addPerson(1, "Petrov")
	s.addMedical(1, 200, false)

	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.ByCategory[CategoryUMO])
	s.Contains(s.notifier.SentTo(1)[0].Text, "УМО")

	// With a follow-up on file the same clearance is quiet.
	s.notifier.Reset()
	s.addMedical(1, 200, true)
	report, err = s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(report.Flagged)
	s.Empty(s.notifier.Sent())
}

func (s *SweepSuite) TestMultipleCategoriesMultipleMessages() {
	s.addPerson(1, "Petrov")
	s.addMedical(1, 340, true) // 25 days remaining -> tier 30
	ex4 := now.AddDate(0, 0, -185) // expired 6-month check
	s.Require().NoError(s.store.SetExercise(context.Background(), 1, models.Exercise4, ex4))
	s.Require().NoError(s.store.UpsertVacation(context.Background(), &models.VacationRecord{
		PersonID:  1,
		StartDate: now.AddDate(0, 0, -370),
		EndDate:   now.AddDate(0, 0, -360), // 5 days until cycle end -> tier 7
		Days:      11,
	}))

	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, report.Flagged)
	s.Equal(1, report.ByCategory[CategoryVLK])
	s.Equal(1, report.ByCategory[CategoryExercise4])
	s.Equal(1, report.ByCategory[CategoryVacation])

	personMsgs := s.notifier.SentTo(1)
	s.Require().Len(personMsgs, 3)
	s.Len(s.notifier.SentTo(adminChat), 3)

	// The 7-day vacation warning carries the alarm marker.
	var vacationText string
	for _, m := range personMsgs {
		if strings.Contains(m.Text, "отпуск") {
			vacationText = m.Text
		}
	}
	s.Contains(vacationText, "🚨")
}

func (s *SweepSuite) TestExerciseBoundaryNotFlagged() {
	s.addPerson(1, "Petrov")
	// Exactly 180 days: daysRemaining == 0, not expired, no tier.
	s.Require().NoError(s.store.SetExercise(context.Background(), 1, models.Exercise4, now.AddDate(0, 0, -180)))

	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(report.Flagged)
}

func (s *SweepSuite) TestBlockedRecipientDoesNotAbortSweep() {
	s.addPerson(1, "Blocked")
	s.addPerson(2, "Reachable")
	s.addMedical(1, 370, false)
	s.addMedical(2, 370, false)
	s.notifier.Block(1)

	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, report.Flagged)
	s.Equal(1, report.Sent)
	s.Equal(1, report.Failures)

	s.Empty(s.notifier.SentTo(1))
	s.Len(s.notifier.SentTo(2), 1)
	// Mirrors still reach the duty officer for both.
	s.Len(s.notifier.SentTo(adminChat), 2)

	s.Len(s.audit.ByAction(audit.EventReminderFailed), 1)
	s.Len(s.audit.ByAction(audit.EventReminderSent), 1)
}

func (s *SweepSuite) TestRepeatSweepFlagsAgain() {
	s.addPerson(1, "Petrov")
	s.addMedical(1, 370, false)

	first, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	second, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)

	s.Equal(first.Flagged, second.Flagged)
	s.Len(s.notifier.SentTo(1), 2)
}

func (s *SweepSuite) TestDeletedPersonDisappears() {
	s.addPerson(1, "Petrov")
	s.addMedical(1, 370, false)

	_, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Len(s.notifier.SentTo(1), 1)

	s.Require().NoError(s.store.DeletePerson(context.Background(), 1))
	s.notifier.Reset()

	report, err := s.service.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(report.PersonsChecked)
	s.Empty(s.notifier.Sent())
}

// failingStore fails ListPersons a fixed number of times, then delegates.
type failingStore struct {
	*store.MemoryStore
	failures int
}

func (f *failingStore) ListPersons(ctx context.Context) ([]*models.Person, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("store unavailable")
	}
	return f.MemoryStore.ListPersons(ctx)
}

func (s *SweepSuite) TestRunRetriesAfterBackoff() {
	fs := &failingStore{MemoryStore: s.store, failures: 1}
	svc, err := New(fs, s.notifier, adminChat,
		WithInterval(50*time.Millisecond),
		WithErrorBackoff(5*time.Millisecond),
	)
	s.Require().NoError(err)

	s.addPerson(1, "Petrov")
	s.addMedical(1, 370, false)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	// First pass fails; the backoff pass should deliver.
	s.Eventually(func() bool {
		return len(s.notifier.SentTo(1)) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	s.ErrorIs(<-done, context.Canceled)
}

func (s *SweepSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	err := s.service.Run(ctx)
	s.ErrorIs(err, context.Canceled)
}

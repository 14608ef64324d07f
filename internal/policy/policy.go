// Package policy holds the pure deadline evaluators. No I/O, no state: each
// function maps a recorded date and the current day to a classification the
// sweep and the /status command turn into messages.
//
// All arithmetic happens on calendar days. Callers may pass any time.Time;
// inputs are truncated to a UTC date before subtraction so time-of-day can
// never shift a result across a day boundary.
package policy

import "time"

const (
	// VLKValidDays is the medical clearance validity window.
	VLKValidDays = 365
	// UMODeadlineDays is the point in the clearance window after which a
	// follow-up review must be on file.
	UMODeadlineDays = 180
	// VacationCycleDays is the rotation period after a vacation ends.
	VacationCycleDays = 365
	// ExerciseMonthDays is the fixed month length used for proficiency
	// validity, matching the unit's scheduling convention (not calendar
	// months).
	ExerciseMonthDays = 30
)

// Warning tiers, tightest first.
const (
	Tier7  = 7
	Tier15 = 15
	Tier30 = 30
)

// DateOnly truncates t to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
// Negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)) / (24 * time.Hour))
}

// Tier returns the tightest warning tier covering daysRemaining, or 0 when
// no tier fires. Windows are half-open on the low end: daysRemaining of 0
// is expiry-adjacent, not a warning.
func Tier(daysRemaining int) int {
	switch {
	case daysRemaining <= 0:
		return 0
	case daysRemaining <= Tier7:
		return Tier7
	case daysRemaining <= Tier15:
		return Tier15
	case daysRemaining <= Tier30:
		return Tier30
	default:
		return 0
	}
}

// ClearanceStatus classifies a medical clearance (VLK) record.
type ClearanceStatus struct {
	DaysPassed    int
	DaysRemaining int
	Expired       bool
	// FollowupRequired is set when the clearance is past the follow-up
	// deadline and no follow-up review (UMO) date is on file.
	FollowupRequired bool
	// Tier flags are independent booleans; the 7-day window is a subset of
	// 15 which is a subset of 30. WarnTier carries the tightest one.
	Remind7  bool
	Remind15 bool
	Remind30 bool
	WarnTier int
}

// Ok reports whether the clearance needs no attention.
func (s ClearanceStatus) Ok() bool {
	return !s.Expired && !s.FollowupRequired && s.WarnTier == 0
}

// EvaluateClearance classifies a VLK exam date against now. hasFollowup
// tells whether a follow-up review date is on file; its own date does not
// affect the classification.
func EvaluateClearance(vlkDate time.Time, hasFollowup bool, now time.Time) ClearanceStatus {
	daysPassed := DaysBetween(vlkDate, now)
	daysRemaining := VLKValidDays - daysPassed

	s := ClearanceStatus{
		DaysPassed:    daysPassed,
		DaysRemaining: daysRemaining,
		Expired:       daysPassed >= VLKValidDays,
		Remind7:       0 < daysRemaining && daysRemaining <= Tier7,
		Remind15:      0 < daysRemaining && daysRemaining <= Tier15,
		Remind30:      0 < daysRemaining && daysRemaining <= Tier30,
	}
	s.FollowupRequired = !s.Expired && daysPassed >= UMODeadlineDays && !hasFollowup
	if !s.Expired && !s.FollowupRequired {
		s.WarnTier = Tier(daysRemaining)
	}
	return s
}

// ExerciseStatus classifies a proficiency check (KBP exercise) record.
type ExerciseStatus struct {
	DaysRemaining int
	ValidUntil    time.Time
	Expired       bool
	Remind7       bool
	Remind15      bool
	Remind30      bool
	WarnTier      int
}

func (s ExerciseStatus) Ok() bool {
	return !s.Expired && s.WarnTier == 0
}

// EvaluateExercise classifies a check date with a validity of validMonths
// fixed 30-day months. The boundary day (DaysRemaining == 0) is still valid.
func EvaluateExercise(checkDate time.Time, validMonths int, now time.Time) ExerciseStatus {
	validUntil := DateOnly(checkDate).AddDate(0, 0, validMonths*ExerciseMonthDays)
	daysRemaining := DaysBetween(now, validUntil)

	s := ExerciseStatus{
		DaysRemaining: daysRemaining,
		ValidUntil:    validUntil,
		Expired:       daysRemaining < 0,
		Remind7:       0 < daysRemaining && daysRemaining <= Tier7,
		Remind15:      0 < daysRemaining && daysRemaining <= Tier15,
		Remind30:      0 < daysRemaining && daysRemaining <= Tier30,
	}
	if !s.Expired {
		s.WarnTier = Tier(daysRemaining)
	}
	return s
}

// VacationStatus classifies a vacation rotation record by its end date.
type VacationStatus struct {
	DaysPassed    int
	DaysUntilNext int
	Expired       bool
	Remind7       bool
	Remind15      bool
	Remind30      bool
	WarnTier      int
}

func (s VacationStatus) Ok() bool {
	return !s.Expired && s.WarnTier == 0
}

// EvaluateVacation classifies the end date of the last vacation against the
// one-year rotation cycle.
func EvaluateVacation(endDate time.Time, now time.Time) VacationStatus {
	daysPassed := DaysBetween(endDate, now)
	daysUntilNext := VacationCycleDays - daysPassed

	s := VacationStatus{
		DaysPassed:    daysPassed,
		DaysUntilNext: daysUntilNext,
		Expired:       daysPassed >= VacationCycleDays,
		Remind7:       0 < daysUntilNext && daysUntilNext <= Tier7,
		Remind15:      0 < daysUntilNext && daysUntilNext <= Tier15,
		Remind30:      0 < daysUntilNext && daysUntilNext <= Tier30,
	}
	if !s.Expired {
		s.WarnTier = Tier(daysUntilNext)
	}
	return s
}

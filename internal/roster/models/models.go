// Package models defines the roster records tracked per crew member.
package models

import (
	"strings"
	"time"
)

// Exercise numbers for proficiency checks and their validity cycles.
const (
	Exercise4 = 4 // 6-month cycle
	Exercise7 = 7 // 12-month cycle

	Exercise4ValidMonths = 6
	Exercise7ValidMonths = 12
)

// ExerciseValidMonths maps an exercise number to its validity in months.
// Returns 0 for unknown exercises.
func ExerciseValidMonths(exercise int) int {
	switch exercise {
	case Exercise4:
		return Exercise4ValidMonths
	case Exercise7:
		return Exercise7ValidMonths
	default:
		return 0
	}
}

// Person is a tracked crew member. ID is the Telegram chat id and is
// immutable; name and rank fields may change.
type Person struct {
	ID         int64     `json:"id"`
	Surname    string    `json:"surname"`
	Name       string    `json:"name"`
	Patronymic string    `json:"patronymic,omitempty"`
	Rank       string    `json:"rank,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FullName returns the display form used in notifications and reports.
func (p *Person) FullName() string {
	return strings.TrimSpace(p.Surname + " " + p.Name)
}

// MedicalRecord holds the medical clearance (VLK) exam date and the optional
// follow-up review (UMO) date. At most one record per person; re-adding
// replaces the previous one.
type MedicalRecord struct {
	PersonID int64      `json:"person_id"`
	VLKDate  time.Time  `json:"vlk_date"`
	UMODate  *time.Time `json:"umo_date,omitempty"`
}

// HasFollowup reports whether a follow-up review date is on file.
func (m *MedicalRecord) HasFollowup() bool {
	return m.UMODate != nil
}

// ProficiencyRecord holds the two independent proficiency check slots.
// Either slot may be nil; setting one never disturbs the other.
type ProficiencyRecord struct {
	PersonID      int64      `json:"person_id"`
	Exercise4Date *time.Time `json:"exercise_4_date,omitempty"`
	Exercise7Date *time.Time `json:"exercise_7_date,omitempty"`
}

// VacationRecord holds the most recent vacation. A new vacation overwrites
// the previous one; no history is kept.
type VacationRecord struct {
	PersonID  int64     `json:"person_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// Days is the inclusive day count: (EndDate - StartDate) + 1.
	Days int `json:"days"`
}

// Package store persists the roster. Two implementations exist: an
// in-memory store for tests and single-node development, and a PostgreSQL
// store for real deployments.
package store

import (
	"context"
	"time"

	"aircrew/internal/roster/models"
	derrors "aircrew/pkg/domain-errors"
)

// ErrNotFound keeps absent-record reporting consistent across
// implementations. The sweep treats it as skip-category, never as failure.
var ErrNotFound = derrors.New(derrors.CodeNotFound, "record not found")

// Store is the full persistence surface. The sweep consumes only the read
// side; intake and the admin API use the writes.
type Store interface {
	CreatePerson(ctx context.Context, p *models.Person) error
	GetPerson(ctx context.Context, id int64) (*models.Person, error)
	UpdatePerson(ctx context.Context, p *models.Person) error
	// DeletePerson removes the person and cascades to all category records.
	DeletePerson(ctx context.Context, id int64) error
	// ListPersons returns all tracked persons in insertion order.
	ListPersons(ctx context.Context) ([]*models.Person, error)

	UpsertMedical(ctx context.Context, rec *models.MedicalRecord) error
	GetMedical(ctx context.Context, personID int64) (*models.MedicalRecord, error)

	// SetExercise sets one proficiency slot without disturbing the other.
	SetExercise(ctx context.Context, personID int64, exercise int, date time.Time) error
	GetProficiency(ctx context.Context, personID int64) (*models.ProficiencyRecord, error)

	UpsertVacation(ctx context.Context, rec *models.VacationRecord) error
	GetVacation(ctx context.Context, personID int64) (*models.VacationRecord, error)
}

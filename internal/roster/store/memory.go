package store

import (
	"context"
	"sync"
	"time"

	"aircrew/internal/policy"
	"aircrew/internal/roster/models"
	derrors "aircrew/pkg/domain-errors"
)

// MemoryStore is a map-backed Store. ListPersons preserves insertion order,
// which fixes the sweep's per-pass enumeration order.
type MemoryStore struct {
	mu          sync.RWMutex
	persons     map[int64]*models.Person
	order       []int64
	medical     map[int64]*models.MedicalRecord
	proficiency map[int64]*models.ProficiencyRecord
	vacation    map[int64]*models.VacationRecord
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		persons:     make(map[int64]*models.Person),
		medical:     make(map[int64]*models.MedicalRecord),
		proficiency: make(map[int64]*models.ProficiencyRecord),
		vacation:    make(map[int64]*models.VacationRecord),
	}
}

func (s *MemoryStore) CreatePerson(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.persons[p.ID]; exists {
		return derrors.New(derrors.CodeConflict, "person already registered")
	}
	cp := *p
	s.persons[p.ID] = &cp
	s.order = append(s.order, p.ID)
	return nil
}

func (s *MemoryStore) GetPerson(_ context.Context, id int64) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdatePerson(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	s.persons[p.ID] = &cp
	return nil
}

func (s *MemoryStore) DeletePerson(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[id]; !ok {
		return ErrNotFound
	}
	delete(s.persons, id)
	delete(s.medical, id)
	delete(s.proficiency, id)
	delete(s.vacation, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ListPersons(_ context.Context) ([]*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Person, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.persons[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) UpsertMedical(_ context.Context, rec *models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[rec.PersonID]; !ok {
		return ErrNotFound
	}
	cp := *rec
	s.medical[rec.PersonID] = &cp
	return nil
}

func (s *MemoryStore) GetMedical(_ context.Context, personID int64) (*models.MedicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.medical[personID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) SetExercise(_ context.Context, personID int64, exercise int, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[personID]; !ok {
		return ErrNotFound
	}
	rec, ok := s.proficiency[personID]
	if !ok {
		rec = &models.ProficiencyRecord{PersonID: personID}
		s.proficiency[personID] = rec
	}
	d := policy.DateOnly(date)
	switch exercise {
	case models.Exercise4:
		rec.Exercise4Date = &d
	case models.Exercise7:
		rec.Exercise7Date = &d
	default:
		return derrors.Newf(derrors.CodeValidation, "unknown exercise %d", exercise)
	}
	return nil
}

func (s *MemoryStore) GetProficiency(_ context.Context, personID int64) (*models.ProficiencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.proficiency[personID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) UpsertVacation(_ context.Context, rec *models.VacationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[rec.PersonID]; !ok {
		return ErrNotFound
	}
	cp := *rec
	s.vacation[rec.PersonID] = &cp
	return nil
}

func (s *MemoryStore) GetVacation(_ context.Context, personID int64) (*models.VacationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.vacation[personID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"aircrew/internal/policy"
	"aircrew/internal/roster/models"
	derrors "aircrew/pkg/domain-errors"
)

// PostgresStore persists the roster in PostgreSQL via database/sql.
// Dates are stored as SQL date columns, so only the calendar day survives a
// round trip, matching the policy engine's granularity.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed roster store and ensures the
// schema exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure roster schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS persons (
			id         BIGINT PRIMARY KEY,
			surname    TEXT NOT NULL,
			name       TEXT NOT NULL,
			patronymic TEXT NOT NULL DEFAULT '',
			rank       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS medical (
			person_id BIGINT PRIMARY KEY REFERENCES persons(id) ON DELETE CASCADE,
			vlk_date  DATE NOT NULL,
			umo_date  DATE
		)`,
		`CREATE TABLE IF NOT EXISTS proficiency (
			person_id       BIGINT PRIMARY KEY REFERENCES persons(id) ON DELETE CASCADE,
			exercise_4_date DATE,
			exercise_7_date DATE
		)`,
		`CREATE TABLE IF NOT EXISTS vacation (
			person_id  BIGINT PRIMARY KEY REFERENCES persons(id) ON DELETE CASCADE,
			start_date DATE NOT NULL,
			end_date   DATE NOT NULL,
			days       INT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreatePerson(ctx context.Context, p *models.Person) error {
	query := `
		INSERT INTO persons (id, surname, name, patronymic, rank, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Surname, p.Name, p.Patronymic, p.Rank, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return derrors.New(derrors.CodeConflict, "person already registered")
		}
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id int64) (*models.Person, error) {
	var p models.Person
	query := `SELECT id, surname, name, patronymic, rank, created_at FROM persons WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Surname, &p.Name, &p.Patronymic, &p.Rank, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) UpdatePerson(ctx context.Context, p *models.Person) error {
	query := `UPDATE persons SET surname = $2, name = $3, patronymic = $4, rank = $5 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, p.ID, p.Surname, p.Name, p.Patronymic, p.Rank)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeletePerson(ctx context.Context, id int64) error {
	// Category rows go with the person via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) ListPersons(ctx context.Context) ([]*models.Person, error) {
	query := `SELECT id, surname, name, patronymic, rank, created_at FROM persons ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var out []*models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Surname, &p.Name, &p.Patronymic, &p.Rank, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpsertMedical(ctx context.Context, rec *models.MedicalRecord) error {
	query := `
		INSERT INTO medical (person_id, vlk_date, umo_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (person_id) DO UPDATE SET
			vlk_date = EXCLUDED.vlk_date,
			umo_date = EXCLUDED.umo_date
	`
	_, err := s.db.ExecContext(ctx, query, rec.PersonID, policy.DateOnly(rec.VLKDate), nullDate(rec.UMODate))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("upsert medical: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMedical(ctx context.Context, personID int64) (*models.MedicalRecord, error) {
	rec := models.MedicalRecord{PersonID: personID}
	var umo sql.NullTime
	query := `SELECT vlk_date, umo_date FROM medical WHERE person_id = $1`
	err := s.db.QueryRowContext(ctx, query, personID).Scan(&rec.VLKDate, &umo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get medical: %w", err)
	}
	rec.VLKDate = policy.DateOnly(rec.VLKDate)
	if umo.Valid {
		d := policy.DateOnly(umo.Time)
		rec.UMODate = &d
	}
	return &rec, nil
}

func (s *PostgresStore) SetExercise(ctx context.Context, personID int64, exercise int, date time.Time) error {
	var column string
	switch exercise {
	case models.Exercise4:
		column = "exercise_4_date"
	case models.Exercise7:
		column = "exercise_7_date"
	default:
		return derrors.Newf(derrors.CodeValidation, "unknown exercise %d", exercise)
	}
	// column comes from the switch above, never from input.
	query := fmt.Sprintf(`
		INSERT INTO proficiency (person_id, %[1]s)
		VALUES ($1, $2)
		ON CONFLICT (person_id) DO UPDATE SET %[1]s = EXCLUDED.%[1]s
	`, column)
	_, err := s.db.ExecContext(ctx, query, personID, policy.DateOnly(date))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("set exercise %d: %w", exercise, err)
	}
	return nil
}

func (s *PostgresStore) GetProficiency(ctx context.Context, personID int64) (*models.ProficiencyRecord, error) {
	rec := models.ProficiencyRecord{PersonID: personID}
	var ex4, ex7 sql.NullTime
	query := `SELECT exercise_4_date, exercise_7_date FROM proficiency WHERE person_id = $1`
	err := s.db.QueryRowContext(ctx, query, personID).Scan(&ex4, &ex7)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get proficiency: %w", err)
	}
	if ex4.Valid {
		d := policy.DateOnly(ex4.Time)
		rec.Exercise4Date = &d
	}
	if ex7.Valid {
		d := policy.DateOnly(ex7.Time)
		rec.Exercise7Date = &d
	}
	return &rec, nil
}

func (s *PostgresStore) UpsertVacation(ctx context.Context, rec *models.VacationRecord) error {
	query := `
		INSERT INTO vacation (person_id, start_date, end_date, days)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (person_id) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			days = EXCLUDED.days
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.PersonID, policy.DateOnly(rec.StartDate), policy.DateOnly(rec.EndDate), rec.Days)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("upsert vacation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetVacation(ctx context.Context, personID int64) (*models.VacationRecord, error) {
	rec := models.VacationRecord{PersonID: personID}
	query := `SELECT start_date, end_date, days FROM vacation WHERE person_id = $1`
	err := s.db.QueryRowContext(ctx, query, personID).Scan(&rec.StartDate, &rec.EndDate, &rec.Days)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vacation: %w", err)
	}
	rec.StartDate = policy.DateOnly(rec.StartDate)
	rec.EndDate = policy.DateOnly(rec.EndDate)
	return &rec, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation"
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: policy.DateOnly(*t), Valid: true}
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/subject"
)

type PostgresSubjectRepository struct {
	db *sql.DB
}

func NewPostgresSubjectRepository(db *sql.DB) *PostgresSubjectRepository {
	return &PostgresSubjectRepository{db: db}
}

const subjectColumns = `id, name, birth_date, gender, relation, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSubject only fails on driver errors. A row with unusable profile data is
// returned with Invalid set so the caller can report it per subject.
func scanSubject(row rowScanner) (*subject.Subject, error) {
	s := &subject.Subject{}
	var gender string
	if err := row.Scan(&s.ID, &s.Name, &s.BirthDate, &gender, &s.Relation, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	g, err := lifecycle.ParseGender(gender)
	if err != nil {
		s.Invalid = fmt.Errorf("subject %d: %w", s.ID, err)
	}
	s.Gender = g
	if s.BirthDate.Valid {
		s.BirthDate.Time = lifecycle.DateOnly(s.BirthDate.Time)
	}
	return s, nil
}

func (r *PostgresSubjectRepository) GetByID(ctx context.Context, id int64) (*subject.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM family_members WHERE id = $1`
	s, err := scanSubject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("error getting subject by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSubjectRepository) ListWithBirthDate(ctx context.Context) ([]*subject.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM family_members WHERE birth_date IS NOT NULL ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing subjects with birth date: %w", err)
	}
	defer rows.Close()

	subjects := make([]*subject.Subject, 0)
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subjects: %w", err)
	}
	return subjects, nil
}

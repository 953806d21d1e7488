package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/kalk/internal/domain"
)

// ProgramRepo — репозиторий для работы с programs.
type ProgramRepo struct {
	pool *pgxpool.Pool
}

// NewProgramRepo создаёт новый ProgramRepo.
func NewProgramRepo(pool *pgxpool.Pool) *ProgramRepo {
	return &ProgramRepo{pool: pool}
}

const programColumns = `id, name, source, created_at, updated_at`

// Create создаёт новую программу.
// Возвращает ErrAlreadyExists, если имя занято.
func (r *ProgramRepo) Create(ctx context.Context, p *domain.Program) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
		INSERT INTO programs (id, name, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Source, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("program %q: %w", p.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	return nil
}

// GetByID возвращает программу по ID.
func (r *ProgramRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`
	return scanProgram(r.pool.QueryRow(ctx, query, id))
}

// GetByName возвращает программу по имени.
func (r *ProgramRepo) GetByName(ctx context.Context, name string) (*domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE name = $1`
	return scanProgram(r.pool.QueryRow(ctx, query, name))
}

// List возвращает все программы, отсортированные по имени.
func (r *ProgramRepo) List(ctx context.Context) ([]domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var programs []domain.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, *p)
	}
	return programs, rows.Err()
}

// Update сохраняет имя и исходный текст программы.
func (r *ProgramRepo) Update(ctx context.Context, p *domain.Program) error {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE programs
		SET name = $2, source = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Source, p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("program %q: %w", p.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет программу вместе с её runs и schedules.
func (r *ProgramRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProgram(row pgx.Row) (*domain.Program, error) {
	var p domain.Program
	err := row.Scan(&p.ID, &p.Name, &p.Source, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan program: %w", err)
	}
	return &p, nil
}

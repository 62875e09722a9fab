package postgres

import (
	"context"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/jackc/pgx/v5"
)

type EmployeesRepo struct{ db querier }

func NewEmployeesRepo(db querier) *EmployeesRepo { return &EmployeesRepo{db: db} }

func (r *EmployeesRepo) Create(ctx context.Context, e *domain.Employee) error {
	const q = `
INSERT INTO employees (id, username, name, role, password_hash, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.Exec(ctx, q, e.ID, e.Username, e.Name, e.Role, e.PasswordHash, e.CreatedAt)
	if _, dup := uniqueViolation(err); dup {
		return repo.ErrDuplicateEmployee
	}
	return err
}

func (r *EmployeesRepo) FindByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	const q = `SELECT id, username, name, role, password_hash, created_at FROM employees WHERE lower(username)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var e domain.Employee
	err := r.db.QueryRow(ctx, q, username).Scan(&e.ID, &e.Username, &e.Name, &e.Role, &e.PasswordHash, &e.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

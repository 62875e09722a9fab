package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 3 * time.Second

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool      *pgxpool.Pool
	customers *CustomersRepo
	visits    *VisitsRepo
	employees *EmployeesRepo
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:      pool,
		customers: NewCustomersRepo(pool),
		visits:    NewVisitsRepo(pool),
		employees: NewEmployeesRepo(pool),
	}
}

func (s *Store) Customers() repo.CustomerRepository { return s.customers }
func (s *Store) Visits() repo.VisitRepository       { return s.visits }
func (s *Store) Employees() repo.EmployeeRepository { return s.employees }

type txRepos struct {
	customers *CustomersRepo
	visits    *VisitsRepo
}

func (t txRepos) Customers() repo.CustomerRepository { return t.customers }
func (t txRepos) Visits() repo.VisitRepository       { return t.visits }

// WithinCustomer runs fn in one transaction holding a transaction-scoped
// advisory lock on the customer id. The lock is taken even for ids with no
// customer row so that concurrent lookups of an unknown id stay ordered.
func (s *Store) WithinCustomer(ctx context.Context, customerID string, fn func(ctx context.Context, tx repo.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, customerID); err != nil {
		return err
	}

	if err := fn(ctx, txRepos{customers: &CustomersRepo{db: tx}, visits: &VisitsRepo{db: tx}}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func servicesToStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

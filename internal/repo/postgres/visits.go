package postgres

import (
	"context"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/jackc/pgx/v5"
)

type VisitsRepo struct{ db querier }

func NewVisitsRepo(db querier) *VisitsRepo { return &VisitsRepo{db: db} }

const visitCols = `id, customer_id, entry_time, exit_time, duration_minutes, services,
visit_date, membership_type, entry_method, exit_method, override, override_reason,
forced_exit, exit_reason, terminal_id, entered_by, exited_by`

const openVisitIndex = "visits_one_open_per_customer"

func (r *VisitsRepo) Open(ctx context.Context, v *domain.Visit) error {
	const q = `INSERT INTO visits (
    customer_id, entry_time, services, visit_date, membership_type,
    entry_method, override, override_reason, terminal_id, entered_by
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, q,
		v.CustomerID, v.EntryTime, servicesToStrings(v.Services), v.Date, string(v.MembershipType),
		string(v.EntryMethod), v.Override, v.OverrideReason, v.TerminalID, v.EnteredBy,
	).Scan(&v.ID)
	if name, dup := uniqueViolation(err); dup && name == openVisitIndex {
		return repo.ErrOpenVisitExists
	}
	if err != nil {
		return err
	}
	v.ExitTime = nil
	v.Duration = nil
	return nil
}

func (r *VisitsRepo) Restore(ctx context.Context, v domain.Visit) error {
	const q = `INSERT INTO visits (` + visitCols + `)
VALUES (COALESCE(NULLIF($1, 0), nextval(pg_get_serial_sequence('visits', 'id'))),
        $2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	const bump = `SELECT setval(pg_get_serial_sequence('visits', 'id'), GREATEST((SELECT MAX(id) FROM visits), 1))`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, q,
		v.ID, v.CustomerID, v.EntryTime, v.ExitTime, v.Duration, servicesToStrings(v.Services),
		v.Date, string(v.MembershipType), string(v.EntryMethod), string(v.ExitMethod),
		v.Override, v.OverrideReason, v.ForcedExit, v.ExitReason, v.TerminalID, v.EnteredBy, v.ExitedBy,
	)
	if name, dup := uniqueViolation(err); dup {
		if name == openVisitIndex {
			return repo.ErrOpenVisitExists
		}
		return repo.ErrDuplicateVisit
	}
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, bump)
	return err
}

// Close sets the exit fields of an open visit. The entry time is read under
// FOR UPDATE so the duration is computed once against the stored value.
func (r *VisitsRepo) Close(ctx context.Context, id int64, exitTime time.Time, info domain.CloseInfo) (*domain.Visit, error) {
	const sel = `SELECT entry_time, exit_time FROM visits WHERE id=$1 FOR UPDATE`
	const upd = `UPDATE visits
SET exit_time=$2, duration_minutes=$3, exit_method=$4, exit_reason=$5, forced_exit=$6, exited_by=$7
WHERE id=$1 AND exit_time IS NULL
RETURNING ` + visitCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		entry    time.Time
		existing *time.Time
	)
	err := r.db.QueryRow(ctx, sel, id).Scan(&entry, &existing)
	if err == pgx.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, repo.ErrVisitClosed
	}

	duration := clock.DurationMinutes(entry, exitTime)
	v, err := scanVisit(r.db.QueryRow(ctx, upd, id,
		exitTime, duration, string(info.Method), info.Reason, info.Forced, info.EmployeeID,
	))
	if err == pgx.ErrNoRows {
		return nil, repo.ErrVisitClosed
	}
	return v, err
}

func (r *VisitsRepo) OpenVisitFor(ctx context.Context, customerID string) (*domain.Visit, error) {
	const q = `SELECT ` + visitCols + ` FROM visits WHERE customer_id=$1 AND exit_time IS NULL`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	v, err := scanVisit(r.db.QueryRow(ctx, q, customerID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *VisitsRepo) OpenVisits(ctx context.Context) ([]domain.Visit, error) {
	const q = `SELECT ` + visitCols + ` FROM visits WHERE exit_time IS NULL ORDER BY id`
	return r.list(ctx, q)
}

func (r *VisitsRepo) InRange(ctx context.Context, startKey, endKey string) ([]domain.Visit, error) {
	const q = `SELECT ` + visitCols + ` FROM visits WHERE visit_date BETWEEN $1 AND $2 ORDER BY id`
	return r.list(ctx, q, startKey, endKey)
}

func (r *VisitsRepo) ForCustomer(ctx context.Context, customerID string) ([]domain.Visit, error) {
	const q = `SELECT ` + visitCols + ` FROM visits WHERE customer_id=$1 ORDER BY id`
	return r.list(ctx, q, customerID)
}

func (r *VisitsRepo) list(ctx context.Context, q string, args ...any) ([]domain.Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanVisit(row pgx.Row) (*domain.Visit, error) {
	var (
		v                              domain.Visit
		services                       []string
		mType, entryMethod, exitMethod string
	)
	err := row.Scan(
		&v.ID, &v.CustomerID, &v.EntryTime, &v.ExitTime, &v.Duration, &services,
		&v.Date, &mType, &entryMethod, &exitMethod, &v.Override, &v.OverrideReason,
		&v.ForcedExit, &v.ExitReason, &v.TerminalID, &v.EnteredBy, &v.ExitedBy,
	)
	if err != nil {
		return nil, err
	}
	v.Services = toServices(services)
	v.MembershipType = domain.MembershipType(mType)
	v.EntryMethod = domain.VisitMethod(entryMethod)
	v.ExitMethod = domain.VisitMethod(exitMethod)
	return &v, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/jackc/pgx/v5"
)

type CustomersRepo struct{ db querier }

func NewCustomersRepo(db querier) *CustomersRepo { return &CustomersRepo{db: db} }

const customerCols = `id, first_name, last_name, email, phone, emergency_contact,
membership_type, membership_start, membership_end, membership_status, services,
is_inside, current_entry, current_exit, created_at, updated_at`

func (r *CustomersRepo) Create(ctx context.Context, c *domain.Customer) error {
	const q = `INSERT INTO customers (` + customerCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, m, cv := c.PersonalInfo, c.Membership, c.CurrentVisit
	_, err := r.db.Exec(ctx, q,
		c.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.EmergencyContact,
		string(m.Type), m.StartDate, m.EndDate, string(m.Status), servicesToStrings(m.Services),
		cv.IsInside, cv.EntryTime, cv.ExitTime, c.CreatedAt, c.UpdatedAt,
	)
	if _, dup := uniqueViolation(err); dup {
		return repo.ErrDuplicateCustomer
	}
	return err
}

func (r *CustomersRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `SELECT ` + customerCols + ` FROM customers WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	c, err := scanCustomer(r.db.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CustomersRepo) List(ctx context.Context) ([]domain.Customer, error) {
	const q = `SELECT ` + customerCols + ` FROM customers ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CustomersRepo) SetCurrentVisit(ctx context.Context, id string, cv domain.CurrentVisit, at time.Time) error {
	const q = `UPDATE customers SET is_inside=$2, current_entry=$3, current_exit=$4, updated_at=$5 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := r.db.Exec(ctx, q, id, cv.IsInside, cv.EntryTime, cv.ExitTime, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		c              domain.Customer
		mType, mStatus string
		services       []string
	)
	err := row.Scan(
		&c.ID, &c.PersonalInfo.FirstName, &c.PersonalInfo.LastName, &c.PersonalInfo.Email,
		&c.PersonalInfo.Phone, &c.PersonalInfo.EmergencyContact,
		&mType, &c.Membership.StartDate, &c.Membership.EndDate, &mStatus, &services,
		&c.CurrentVisit.IsInside, &c.CurrentVisit.EntryTime, &c.CurrentVisit.ExitTime,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Membership.Type = domain.MembershipType(mType)
	c.Membership.Status = domain.MembershipStatus(mStatus)
	c.Membership.Services = toServices(services)
	return &c, nil
}

func toServices(in []string) []domain.Service {
	out := make([]domain.Service, 0, len(in))
	for _, s := range in {
		out = append(out, domain.Service(s))
	}
	return out
}

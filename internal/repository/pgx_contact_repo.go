package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type EmergencyContact struct {
	ID       string `db:"id"`
	MemberID string `db:"member_id"`
	Name     string `db:"name"`
	Relation string `db:"relation"`
	Phone    string `db:"phone"`
	Position int    `db:"position"`
}

type EmergencyContactRepository interface {
	Create(ctx context.Context, contact *EmergencyContact) error
	ListByMembers(ctx context.Context, memberIDs []string) ([]*EmergencyContact, error)
}

type pgxEmergencyContactRepository struct {
	pool *pgxpool.Pool
}

func NewPgxEmergencyContactRepository(pool *pgxpool.Pool) EmergencyContactRepository {
	return &pgxEmergencyContactRepository{pool: pool}
}

func (p *pgxEmergencyContactRepository) Create(ctx context.Context, contact *EmergencyContact) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("emergency_contact", "id", "member_id", "name", "relation", "phone", "position"),
		im.Values(
			psql.Arg(contact.ID),
			psql.Arg(contact.MemberID),
			psql.Arg(contact.Name),
			psql.Arg(contact.Relation),
			psql.Arg(contact.Phone),
			psql.Arg(contact.Position),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

// ListByMembers returns the contacts of the given members ordered by member
// and creation position.
func (p *pgxEmergencyContactRepository) ListByMembers(ctx context.Context, memberIDs []string) ([]*EmergencyContact, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := contactsByMembersQuery(memberIDs)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*EmergencyContact, error) {
		c := &EmergencyContact{}
		err := row.Scan(&c.ID, &c.MemberID, &c.Name, &c.Relation, &c.Phone, &c.Position)
		return c, err
	})
}

func contactsByMembersQuery(memberIDs []string) bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns("id", "member_id", "name", "relation", "phone", "position"),
		sm.From("emergency_contact"),
		sm.Where(psql.Quote("member_id").In(inArgs(memberIDs)...)),
		sm.OrderBy(psql.Quote("member_id")),
		sm.OrderBy(psql.Quote("position")),
	)
}

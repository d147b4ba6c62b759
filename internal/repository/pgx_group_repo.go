package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type Group struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	YearFrom     int    `db:"year_from"`
	YearTo       int    `db:"year_to"`
	ShowWebsite  bool   `db:"show_website"`
	ContactEmail string `db:"contact_email"`
}

type GroupRepository interface {
	GetOrCreate(ctx context.Context, name string) (*Group, error)
	GetByName(ctx context.Context, name string) (*Group, error)
	List(ctx context.Context) ([]*Group, error)
}

type pgxGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPgxGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &pgxGroupRepository{pool: pool}
}

func scanGroup(row pgx.CollectableRow) (*Group, error) {
	g := &Group{}
	err := row.Scan(&g.ID, &g.Name, &g.YearFrom, &g.YearTo, &g.ShowWebsite, &g.ContactEmail)
	return g, err
}

// GetOrCreate inserts the group unless a group with that name exists and
// returns the stored row. Concurrent callers converge on the unique name.
func (p *pgxGroupRepository) GetOrCreate(ctx context.Context, name string) (*Group, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("member_group", "name"),
		im.Values(psql.Arg(name)),
		im.OnConflict("name").DoNothing(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}

	return p.GetByName(ctx, name)
}

func (p *pgxGroupRepository) GetByName(ctx context.Context, name string) (*Group, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "name", "year_from", "year_to", "show_website", "contact_email"),
		sm.From("member_group"),
		sm.Where(psql.Quote("name").EQ(psql.Arg(name))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	g, err := pgx.CollectExactlyOneRow(rows, scanGroup)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (p *pgxGroupRepository) List(ctx context.Context) ([]*Group, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "name", "year_from", "year_to", "show_website", "contact_email"),
		sm.From("member_group"),
		sm.OrderBy(psql.Quote("name")),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanGroup)
}

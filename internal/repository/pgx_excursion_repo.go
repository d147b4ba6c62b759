package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type Excursion struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	Place          string    `db:"place"`
	Start          time.Time `db:"start_date"`
	End            time.Time `db:"end_date"`
	LeaderIDs      []string  `db:"-"`
	ParticipantIDs []string  `db:"-"`
}

type ExcursionRepository interface {
	Get(ctx context.Context, id int64) (*Excursion, error)
}

type pgxExcursionRepository struct {
	pool *pgxpool.Pool
}

func NewPgxExcursionRepository(pool *pgxpool.Pool) ExcursionRepository {
	return &pgxExcursionRepository{pool: pool}
}

func (p *pgxExcursionRepository) Get(ctx context.Context, id int64) (*Excursion, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "name", "place", "start_date", "end_date"),
		sm.From("excursion"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	ex := &Excursion{}
	if err = e.QueryRow(ctx, sql, args...).Scan(&ex.ID, &ex.Name, &ex.Place, &ex.Start, &ex.End); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if ex.LeaderIDs, err = p.roster(ctx, e, "excursion_leader", id); err != nil {
		return nil, err
	}
	if ex.ParticipantIDs, err = p.roster(ctx, e, "excursion_participant", id); err != nil {
		return nil, err
	}

	return ex, nil
}

func (p *pgxExcursionRepository) roster(ctx context.Context, e db.Executor, table string, excursionID int64) ([]string, error) {
	q := psql.Select(
		sm.Columns("member_id"),
		sm.From(table),
		sm.Where(psql.Quote("excursion_id").EQ(psql.Arg(excursionID))),
		sm.OrderBy(psql.Quote("member_id")),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

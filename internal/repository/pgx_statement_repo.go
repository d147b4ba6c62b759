package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
)

type Statement struct {
	ID               int64                 `db:"id"`
	ExcursionID      *int64                `db:"excursion_id"`
	CreatedBy        *string               `db:"created_by"`
	Status           model.StatementStatus `db:"status"`
	ShortDescription string                `db:"short_description"`
}

type StatementRepository interface {
	Get(ctx context.Context, id int64) (*Statement, error)
	SetStatus(ctx context.Context, id int64, status model.StatementStatus) error
	SetShortDescription(ctx context.Context, id int64, description string) error
}

type pgxStatementRepository struct {
	pool *pgxpool.Pool
}

func NewPgxStatementRepository(pool *pgxpool.Pool) StatementRepository {
	return &pgxStatementRepository{pool: pool}
}

func (p *pgxStatementRepository) Get(ctx context.Context, id int64) (*Statement, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "excursion_id", "created_by", "status", "short_description"),
		sm.From("statement"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
		sm.ForUpdate("statement"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	s := &Statement{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&s.ID,
		&s.ExcursionID,
		&s.CreatedBy,
		&s.Status,
		&s.ShortDescription,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (p *pgxStatementRepository) SetStatus(ctx context.Context, id int64, status model.StatementStatus) error {
	return p.setColumn(ctx, id, "status", status)
}

func (p *pgxStatementRepository) SetShortDescription(ctx context.Context, id int64, description string) error {
	return p.setColumn(ctx, id, "short_description", description)
}

func (p *pgxStatementRepository) setColumn(ctx context.Context, id int64, column string, value any) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sql, args, err := setStatementColumnQuery(id, column, value).Build(ctx)
	if err != nil {
		return err
	}

	commandTag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}

	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func setStatementColumnQuery(id int64, column string, value any) bob.BaseQuery[*dialect.UpdateQuery] {
	return psql.Update(
		um.Table("statement"),
		um.SetCol(column).ToArg(value),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type Member struct {
	ID               string    `db:"id"`
	Prename          string    `db:"prename"`
	Lastname         string    `db:"lastname"`
	Email            string    `db:"email"`
	AlternativeEmail string    `db:"alternative_email"`
	Phone            string    `db:"phone"`
	Street           string    `db:"street"`
	PostalCode       string    `db:"postal_code"`
	Town             string    `db:"town"`
	BirthDate        time.Time `db:"birth_date"`
	Gender           string    `db:"gender"`
	SwimmingBadge    bool      `db:"swimming_badge"`
	ClimbingBadge    string    `db:"climbing_badge"`
	DAVBadgeNo       string    `db:"dav_badge_no"`
	Comments         string    `db:"comments"`
}

var memberColumns = []string{
	"id", "prename", "lastname", "email", "alternative_email", "phone", "street",
	"postal_code", "town", "birth_date", "gender", "swimming_badge", "climbing_badge",
	"dav_badge_no", "comments",
}

type MemberFilter struct {
	GroupName string
}

type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	Get(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context, filter MemberFilter) ([]*Member, error)
	Delete(ctx context.Context, id string) error
	SetGroups(ctx context.Context, memberID string, groupIDs []int64) error
	GroupNames(ctx context.Context, memberIDs []string) (map[string][]string, error)
}

type pgxMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &pgxMemberRepository{pool: pool}
}

func scanMember(row pgx.CollectableRow) (*Member, error) {
	m := &Member{}
	err := row.Scan(
		&m.ID,
		&m.Prename,
		&m.Lastname,
		&m.Email,
		&m.AlternativeEmail,
		&m.Phone,
		&m.Street,
		&m.PostalCode,
		&m.Town,
		&m.BirthDate,
		&m.Gender,
		&m.SwimmingBadge,
		&m.ClimbingBadge,
		&m.DAVBadgeNo,
		&m.Comments,
	)
	return m, err
}

func qualifiedMemberColumns() []any {
	cols := make([]any, 0, len(memberColumns))
	for _, c := range memberColumns {
		cols = append(cols, psql.Quote("member", c))
	}
	return cols
}

func (p *pgxMemberRepository) Create(ctx context.Context, member *Member) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("member", memberColumns...),
		im.Values(
			psql.Arg(member.ID),
			psql.Arg(member.Prename),
			psql.Arg(member.Lastname),
			psql.Arg(member.Email),
			psql.Arg(member.AlternativeEmail),
			psql.Arg(member.Phone),
			psql.Arg(member.Street),
			psql.Arg(member.PostalCode),
			psql.Arg(member.Town),
			psql.Arg(member.BirthDate),
			psql.Arg(member.Gender),
			psql.Arg(member.SwimmingBadge),
			psql.Arg(member.ClimbingBadge),
			psql.Arg(member.DAVBadgeNo),
			psql.Arg(member.Comments),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxMemberRepository) Get(ctx context.Context, id string) (*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(qualifiedMemberColumns()...),
		sm.From("member"),
		sm.Where(psql.Quote("member", "id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	m, err := pgx.CollectExactlyOneRow(rows, scanMember)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (p *pgxMemberRepository) List(ctx context.Context, filter MemberFilter) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(qualifiedMemberColumns()...),
		sm.From("member"),
		sm.OrderBy(psql.Quote("member", "id")),
	)

	if filter.GroupName != "" {
		q.Apply(
			sm.InnerJoin("member_groups").On(psql.Quote("member_groups", "member_id").EQ(psql.Quote("member", "id"))),
			sm.InnerJoin("member_group").On(psql.Quote("member_group", "id").EQ(psql.Quote("member_groups", "group_id"))),
			sm.Where(psql.Quote("member_group", "name").EQ(psql.Arg(filter.GroupName))),
		)
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanMember)
}

func (p *pgxMemberRepository) Delete(ctx context.Context, id string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("member"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
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

// SetGroups replaces the member's group memberships, keeping the given order.
func (p *pgxMemberRepository) SetGroups(ctx context.Context, memberID string, groupIDs []int64) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	del := psql.Delete(
		dm.From("member_groups"),
		dm.Where(psql.Quote("member_id").EQ(psql.Arg(memberID))),
	)

	sql, args, err := del.Build(ctx)
	if err != nil {
		return err
	}
	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return err
	}

	if len(groupIDs) == 0 {
		return nil
	}

	ins := psql.Insert(
		im.Into("member_groups", "member_id", "group_id", "position"),
		im.OnConflict("member_id", "group_id").DoNothing(),
	)
	for i, groupID := range groupIDs {
		ins.Apply(im.Values(psql.Arg(memberID), psql.Arg(groupID), psql.Arg(i)))
	}

	sql, args, err = ins.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

// GroupNames returns the ordered group names of each requested member.
func (p *pgxMemberRepository) GroupNames(ctx context.Context, memberIDs []string) (map[string][]string, error) {
	res := make(map[string][]string, len(memberIDs))
	if len(memberIDs) == 0 {
		return res, nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := groupNamesQuery(memberIDs)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var memberID, name string
		if err = rows.Scan(&memberID, &name); err != nil {
			return nil, err
		}
		res[memberID] = append(res[memberID], name)
	}

	return res, rows.Err()
}

func groupNamesQuery(memberIDs []string) bob.BaseQuery[*dialect.SelectQuery] {
	return psql.Select(
		sm.Columns(psql.Quote("member_groups", "member_id"), psql.Quote("member_group", "name")),
		sm.From("member_groups"),
		sm.InnerJoin("member_group").On(psql.Quote("member_group", "id").EQ(psql.Quote("member_groups", "group_id"))),
		sm.Where(psql.Quote("member_groups", "member_id").In(inArgs(memberIDs)...)),
		sm.OrderBy(psql.Quote("member_groups", "member_id")),
		sm.OrderBy(psql.Quote("member_groups", "position")),
	)
}

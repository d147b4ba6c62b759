package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/jdav-kompass/kompass/internal/memberscsv"
	"github.com/jdav-kompass/kompass/internal/metrics"
	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/jdav-kompass/kompass/internal/repository"
	"github.com/jdav-kompass/kompass/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type ImportOptions struct {
	// Atomic runs the whole import in one transaction. Without it every row
	// is committed on its own and an abort leaves earlier rows in place.
	Atomic bool
	// SkipInvalid records malformed rows and continues with the next one.
	SkipInvalid bool
}

type ImportResult struct {
	Members       []*model.Member               `json:"-"`
	Created       int                           `json:"created"`
	Failed        []*memberscsv.ValidationError `json:"failed"`
	ContactGroups int                           `json:"contact_groups"`
}

type ExportOptions struct {
	GroupName string
	// ContactGroups is the minimum number of emergency contact column groups.
	ContactGroups int
}

type MemberService struct {
	tx db.Transactor

	members  repository.MemberRepository
	contacts repository.EmergencyContactRepository
	groups   repository.GroupRepository

	metrics *metrics.Metrics
	newID   func() string
}

func NewMemberService(tx db.Transactor) *MemberService {
	return &MemberService{
		tx:    tx,
		newID: newUUID,
	}
}

func newUUID() string {
	// v7 ids sort by creation time, so ordering by id keeps import order.
	return uuid.Must(uuid.NewV7()).String()
}

// ImportCSV creates one member per data row of r, together with its
// emergency contacts and group memberships. Groups are created on first use.
func (s *MemberService) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, *Error) {
	l := logger.FromContext(ctx)

	reader, err := memberscsv.NewReader(r)
	if err != nil {
		l.Warn("rejected csv header", zap.Error(err))
		return nil, csvError(err)
	}

	res := &ImportResult{
		Members:       make([]*model.Member, 0),
		Failed:        make([]*memberscsv.ValidationError, 0),
		ContactGroups: reader.ContactGroups(),
	}

	run := func(ctx context.Context) error {
		for {
			m, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}

			var ve *memberscsv.ValidationError
			if errors.As(err, &ve) {
				s.metrics.RowRejected(ve.Field)
				res.Failed = append(res.Failed, ve)
				if opts.SkipInvalid {
					l.Warn("skipping invalid row", zap.Int("row", ve.Row), zap.String("field", ve.Field), zap.String("reason", ve.Message))
					continue
				}
				l.Warn("aborting import on invalid row", zap.Int("row", ve.Row), zap.String("field", ve.Field), zap.String("reason", ve.Message))
				return NewError(ErrorCodeInvalidCSV, ve.Error())
			}
			if err != nil {
				l.Error("failed to read csv row", zap.Int("row", reader.Row()), zap.Error(err))
				return csvError(err)
			}

			if svcErr := s.createMember(ctx, m); svcErr != nil {
				return svcErr
			}
			res.Members = append(res.Members, m)
		}
	}

	if opts.Atomic {
		err = s.tx.WithinTransaction(ctx, run)
	} else {
		err = run(ctx)
	}

	var svcErr *Error
	if err != nil && !errors.As(err, &svcErr) {
		l.Error("member import transaction failed", zap.Error(err))
		svcErr = NewError(ErrorCodeUnspecified, "member import failed")
	}

	if opts.Atomic && svcErr != nil {
		// rolled back
		res.Members = res.Members[:0]
	}
	res.Created = len(res.Members)
	s.metrics.RowsImported(res.Created)

	l.Info("member import finished",
		zap.Int("created", res.Created),
		zap.Int("failed", len(res.Failed)),
		zap.Bool("atomic", opts.Atomic))

	return res, svcErr
}

func csvError(err error) *Error {
	if memberscsv.IsValidationError(err) || errors.Is(err, memberscsv.ErrInvalidEncoding) {
		return NewError(ErrorCodeInvalidCSV, err.Error())
	}
	return NewError(ErrorCodeUnspecified, errors.Wrap(err, "failed to read csv").Error())
}

func (s *MemberService) createMember(ctx context.Context, m *model.Member) *Error {
	l := logger.FromContext(ctx)

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		m.ID = s.newID()

		if err := s.members.Create(txCtx, toRepoMember(m)); err != nil {
			l.Error("failed to create member", zap.String("name", m.Name()), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create member")
		}

		groupIDs := make([]int64, 0, len(m.Groups))
		for _, name := range m.Groups {
			g, err := s.groups.GetOrCreate(txCtx, name)
			if err != nil {
				l.Error("failed to get or create group", zap.String("group", name), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to get or create group")
			}
			groupIDs = append(groupIDs, g.ID)
		}
		if len(groupIDs) > 0 {
			if err := s.members.SetGroups(txCtx, m.ID, groupIDs); err != nil {
				l.Error("failed to set member groups", zap.String("member_id", m.ID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to set member groups")
			}
		}

		for i, c := range m.EmergencyContacts {
			c.ID = s.newID()
			c.MemberID = m.ID
			c.Position = i
			if err := s.contacts.Create(txCtx, toRepoContact(c)); err != nil {
				l.Error("failed to create emergency contact", zap.String("member_id", m.ID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to create emergency contact")
			}
		}

		l.Debug("member created", zap.String("member_id", m.ID), zap.Int("contacts", len(m.EmergencyContacts)))
		return nil
	})

	var res *Error
	if err != nil && !errors.As(err, &res) {
		l.Error("failed to commit member", zap.String("name", m.Name()), zap.Error(err))
		res = NewError(ErrorCodeUnspecified, "failed to create member")
	}
	return res
}

// ExportCSV writes the selected members ordered by id.
func (s *MemberService) ExportCSV(ctx context.Context, w io.Writer, opts ExportOptions) *Error {
	l := logger.FromContext(ctx)

	if opts.GroupName != "" {
		if _, err := s.groups.GetByName(ctx, opts.GroupName); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				l.Warn("export group not found", zap.String("group", opts.GroupName))
				return NewError(ErrorCodeNotFound, "group not found")
			}
			l.Error("failed to get group", zap.String("group", opts.GroupName), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to get group")
		}
	}

	members, svcErr := s.loadMembers(ctx, repository.MemberFilter{GroupName: opts.GroupName})
	if svcErr != nil {
		return svcErr
	}

	if err := memberscsv.Encode(w, members, opts.ContactGroups); err != nil {
		l.Error("failed to write csv", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to write csv")
	}
	s.metrics.RowsExported(len(members))

	l.Info("member export finished", zap.Int("rows", len(members)), zap.String("group", opts.GroupName))
	return nil
}

func (s *MemberService) loadMembers(ctx context.Context, filter repository.MemberFilter) ([]*model.Member, *Error) {
	l := logger.FromContext(ctx)

	repoMembers, err := s.members.List(ctx, filter)
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	ids := make([]string, 0, len(repoMembers))
	for _, m := range repoMembers {
		ids = append(ids, m.ID)
	}

	groups, err := s.members.GroupNames(ctx, ids)
	if err != nil {
		l.Error("failed to get member groups", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get member groups")
	}

	repoContacts, err := s.contacts.ListByMembers(ctx, ids)
	if err != nil {
		l.Error("failed to list emergency contacts", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list emergency contacts")
	}

	contacts := make(map[string][]*repository.EmergencyContact, len(ids))
	for _, c := range repoContacts {
		contacts[c.MemberID] = append(contacts[c.MemberID], c)
	}

	members := make([]*model.Member, 0, len(repoMembers))
	for _, m := range repoMembers {
		members = append(members, toModelMember(m, groups[m.ID], contacts[m.ID]))
	}
	return members, nil
}

func (s *MemberService) GetMember(ctx context.Context, id string) (*model.Member, *Error) {
	l := logger.FromContext(ctx)

	repoMember, err := s.members.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("member not found", zap.String("member_id", id))
		return nil, NewError(ErrorCodeNotFound, "member not found")
	}
	if err != nil {
		l.Error("failed to get member", zap.String("member_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get member")
	}

	groups, err := s.members.GroupNames(ctx, []string{id})
	if err != nil {
		l.Error("failed to get member groups", zap.String("member_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get member groups")
	}

	contacts, err := s.contacts.ListByMembers(ctx, []string{id})
	if err != nil {
		l.Error("failed to list emergency contacts", zap.String("member_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list emergency contacts")
	}

	return toModelMember(repoMember, groups[id], contacts), nil
}

// DeleteMember removes the member; its emergency contacts go with it.
func (s *MemberService) DeleteMember(ctx context.Context, id string) *Error {
	l := logger.FromContext(ctx)

	err := s.members.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("member not found", zap.String("member_id", id))
		return NewError(ErrorCodeNotFound, "member not found")
	}
	if err != nil {
		l.Error("failed to delete member", zap.String("member_id", id), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete member")
	}
	return nil
}

func (s *MemberService) ListGroups(ctx context.Context) ([]*model.Group, *Error) {
	repoGroups, err := s.groups.List(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list groups", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list groups")
	}

	groups := make([]*model.Group, 0, len(repoGroups))
	for _, g := range repoGroups {
		groups = append(groups, &model.Group{
			ID:           g.ID,
			Name:         g.Name,
			YearFrom:     g.YearFrom,
			YearTo:       g.YearTo,
			ShowWebsite:  g.ShowWebsite,
			ContactEmail: g.ContactEmail,
		})
	}
	return groups, nil
}

func (s *MemberService) WithMemberRepo(r repository.MemberRepository) *MemberService {
	s.members = r
	return s
}

func (s *MemberService) WithEmergencyContactRepo(r repository.EmergencyContactRepository) *MemberService {
	s.contacts = r
	return s
}

func (s *MemberService) WithGroupRepo(r repository.GroupRepository) *MemberService {
	s.groups = r
	return s
}

func (s *MemberService) WithMetrics(m *metrics.Metrics) *MemberService {
	s.metrics = m
	return s
}

func (s *MemberService) WithIDGenerator(fn func() string) *MemberService {
	s.newID = fn
	return s
}

package service

import (
	"context"

	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/jdav-kompass/kompass/internal/repository"
	"github.com/jdav-kompass/kompass/internal/rules"
	"github.com/jdav-kompass/kompass/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type StatementService struct {
	tx db.Transactor

	statements repository.StatementRepository
	excursions repository.ExcursionRepository
}

func NewStatementService(tx db.Transactor) *StatementService {
	return &StatementService{
		tx: tx,
	}
}

// load fetches the statement and its excursion, if it has one.
func (s *StatementService) load(ctx context.Context, id int64) (rules.StatementResource, *Error) {
	l := logger.FromContext(ctx)

	st, err := s.statements.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("statement not found", zap.Int64("statement_id", id))
		return rules.StatementResource{}, NewError(ErrorCodeNotFound, "statement not found")
	}
	if err != nil {
		l.Error("failed to get statement", zap.Int64("statement_id", id), zap.Error(err))
		return rules.StatementResource{}, NewError(ErrorCodeUnspecified, "failed to get statement")
	}

	res := rules.StatementResource{Statement: toModelStatement(st)}
	if st.ExcursionID == nil {
		return res, nil
	}

	ex, err := s.excursions.Get(ctx, *st.ExcursionID)
	if errors.Is(err, repository.ErrNotFound) {
		// dangling reference, treated as a statement without excursion
		l.Warn("statement excursion not found", zap.Int64("statement_id", id), zap.Int64("excursion_id", *st.ExcursionID))
		return res, nil
	}
	if err != nil {
		l.Error("failed to get excursion", zap.Int64("excursion_id", *st.ExcursionID), zap.Error(err))
		return rules.StatementResource{}, NewError(ErrorCodeUnspecified, "failed to get excursion")
	}
	res.Trip = toModelExcursion(ex)

	return res, nil
}

func (s *StatementService) GetStatement(ctx context.Context, actor rules.Actor, id int64) (*model.Statement, *Error) {
	l := logger.FromContext(ctx)

	res, svcErr := s.load(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}

	if !rules.ViewStatement(actor, res).Allowed() {
		l.Warn("statement view denied", zap.Int64("statement_id", id), zap.String("member_id", actor.MemberID))
		return nil, NewError(ErrorCodeForbidden, "not allowed to view statement")
	}

	return res.Statement, nil
}

// SubmitStatement moves an unsubmitted statement to submitted.
func (s *StatementService) SubmitStatement(ctx context.Context, actor rules.Actor, id int64) (*model.Statement, *Error) {
	l := logger.FromContext(ctx)
	l.Info("submitting statement", zap.Int64("statement_id", id), zap.String("member_id", actor.MemberID))

	var submitted *model.Statement
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		res, svcErr := s.load(txCtx, id)
		if svcErr != nil {
			return svcErr
		}

		if !rules.ViewStatement(actor, res).Allowed() {
			l.Warn("statement view denied", zap.Int64("statement_id", id), zap.String("member_id", actor.MemberID))
			return NewError(ErrorCodeForbidden, "not allowed to view statement")
		}
		if res.Statement.Status != model.StatementUnsubmitted {
			l.Warn("statement already submitted", zap.Int64("statement_id", id), zap.String("status", string(res.Statement.Status)))
			return NewError(ErrorCodeAlreadySubmitted, "statement already submitted")
		}
		if !rules.SubmitStatement(actor, res).Allowed() {
			l.Warn("statement submit denied", zap.Int64("statement_id", id), zap.String("member_id", actor.MemberID))
			return NewError(ErrorCodeForbidden, "not allowed to submit statement")
		}

		if err := s.statements.SetStatus(txCtx, id, model.StatementSubmitted); err != nil {
			l.Error("failed to set statement status", zap.Int64("statement_id", id), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to submit statement")
		}

		res.Statement.Status = model.StatementSubmitted
		submitted = res.Statement
		return nil
	})

	var res *Error
	if errors.As(err, &res) {
		return nil, res
	}
	if err != nil {
		l.Error("failed to submit statement", zap.Int64("statement_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to submit statement")
	}

	return submitted, nil
}

// UpdateStatement changes the short description. Creators and excursion
// leaders may change open statements; admins may change any.
func (s *StatementService) UpdateStatement(ctx context.Context, actor rules.Actor, id int64, shortDescription string) (*model.Statement, *Error) {
	l := logger.FromContext(ctx)
	l.Info("updating statement", zap.Int64("statement_id", id), zap.String("member_id", actor.MemberID))

	var updated *model.Statement
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		res, svcErr := s.load(txCtx, id)
		if svcErr != nil {
			return svcErr
		}

		if !rules.ViewStatement(actor, res).Allowed() {
			l.Warn("statement view denied", zap.Int64("statement_id", id), zap.String("member_id", actor.MemberID))
			return NewError(ErrorCodeForbidden, "not allowed to view statement")
		}
		if !rules.ChangeStatement(actor, res).Allowed() {
			if res.Statement.Status != model.StatementUnsubmitted {
				l.Warn("statement already submitted", zap.Int64("statement_id", id), zap.String("status", string(res.Statement.Status)))
				return NewError(ErrorCodeAlreadySubmitted, "statement already submitted")
			}
			l.Warn("statement change denied", zap.Int64("statement_id", id), zap.String("member_id", actor.MemberID))
			return NewError(ErrorCodeForbidden, "not allowed to change statement")
		}

		if err := s.statements.SetShortDescription(txCtx, id, shortDescription); err != nil {
			l.Error("failed to set statement description", zap.Int64("statement_id", id), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update statement")
		}

		res.Statement.ShortDescription = shortDescription
		updated = res.Statement
		return nil
	})

	var res *Error
	if errors.As(err, &res) {
		return nil, res
	}
	if err != nil {
		l.Error("failed to update statement", zap.Int64("statement_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to update statement")
	}

	return updated, nil
}

func (s *StatementService) WithStatementRepo(r repository.StatementRepository) *StatementService {
	s.statements = r
	return s
}

func (s *StatementService) WithExcursionRepo(r repository.ExcursionRepository) *StatementService {
	s.excursions = r
	return s
}

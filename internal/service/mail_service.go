package service

import (
	"context"
	"strings"

	"github.com/jdav-kompass/kompass/internal/mailer"
	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/jdav-kompass/kompass/internal/repository"
	"github.com/jdav-kompass/kompass/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type MailService struct {
	domain string
	texts  *mailer.Texts

	members repository.MemberRepository
	groups  repository.GroupRepository
}

func NewMailService(domain string, texts *mailer.Texts) *MailService {
	return &MailService{
		domain: domain,
		texts:  texts,
	}
}

// ResolveForward finds the mailboxes behind a section forwarding address.
// Every member whose name matches the local part contributes its email and
// alternative email.
func (s *MailService) ResolveForward(ctx context.Context, localPart string) (*model.Forward, *Error) {
	l := logger.FromContext(ctx)

	localPart = strings.TrimSpace(localPart)
	if at := strings.IndexByte(localPart, '@'); at >= 0 {
		if !strings.EqualFold(localPart[at+1:], s.domain) {
			l.Warn("forward for foreign domain", zap.String("address", localPart))
			return nil, NewError(ErrorCodeNotFound, "no forward for this domain")
		}
		localPart = localPart[:at]
	}
	if mailer.Simplify(localPart) == "" {
		return nil, NewError(ErrorCodeInvalidBody, "local part is empty")
	}

	members, err := s.members.List(ctx, repository.MemberFilter{})
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	seen := make(map[string]bool)
	recipients := make([]string, 0)
	add := func(addr string) {
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			return
		}
		seen[key] = true
		recipients = append(recipients, addr)
	}
	for _, m := range members {
		if !mailer.Matches(m.Prename, m.Lastname, localPart) {
			continue
		}
		add(m.Email)
		add(m.AlternativeEmail)
	}

	if len(recipients) == 0 {
		l.Debug("no member matches forward", zap.String("local_part", localPart))
		return nil, NewError(ErrorCodeNotFound, "no member matches this address")
	}

	note, err := s.texts.ForwardNote()
	if err != nil {
		l.Error("failed to render forward note", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to render forward note")
	}

	return &model.Forward{
		Address:    localPart + "@" + s.domain,
		Recipients: recipients,
		Note:       note,
	}, nil
}

// EchoDrafts renders the data confirmation mail for every member of the
// group that has an email address. An empty group name selects everybody.
func (s *MailService) EchoDrafts(ctx context.Context, groupName string) ([]*model.MailDraft, *Error) {
	l := logger.FromContext(ctx)

	if groupName != "" {
		_, err := s.groups.GetByName(ctx, groupName)
		if errors.Is(err, repository.ErrNotFound) {
			l.Warn("echo group not found", zap.String("group", groupName))
			return nil, NewError(ErrorCodeNotFound, "group not found")
		}
		if err != nil {
			l.Error("failed to get group", zap.String("group", groupName), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to get group")
		}
	}

	members, err := s.members.List(ctx, repository.MemberFilter{GroupName: groupName})
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	subject, err := s.texts.EchoSubject()
	if err != nil {
		l.Error("failed to render echo subject", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to render echo mail")
	}

	drafts := make([]*model.MailDraft, 0, len(members))
	for _, m := range members {
		if m.Email == "" {
			continue
		}
		body, err := s.texts.EchoBody(m.Prename)
		if err != nil {
			l.Error("failed to render echo body", zap.String("member_id", m.ID), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to render echo mail")
		}
		drafts = append(drafts, &model.MailDraft{
			To:      m.Email,
			Subject: subject,
			Body:    body,
		})
	}

	l.Info("echo drafts rendered", zap.Int("drafts", len(drafts)), zap.String("group", groupName))
	return drafts, nil
}

func (s *MailService) WithMemberRepo(r repository.MemberRepository) *MailService {
	s.members = r
	return s
}

func (s *MailService) WithGroupRepo(r repository.GroupRepository) *MailService {
	s.groups = r
	return s
}

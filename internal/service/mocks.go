package service

import (
	"context"

	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/jdav-kompass/kompass/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *repository.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Get(ctx context.Context, id string) (*repository.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Member), args.Error(1)
}

func (m *MockMemberRepository) List(ctx context.Context, filter repository.MemberFilter) ([]*repository.Member, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMemberRepository) SetGroups(ctx context.Context, memberID string, groupIDs []int64) error {
	args := m.Called(ctx, memberID, groupIDs)
	return args.Error(0)
}

func (m *MockMemberRepository) GroupNames(ctx context.Context, memberIDs []string) (map[string][]string, error) {
	args := m.Called(ctx, memberIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]string), args.Error(1)
}

type MockEmergencyContactRepository struct {
	mock.Mock
}

func (m *MockEmergencyContactRepository) Create(ctx context.Context, contact *repository.EmergencyContact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockEmergencyContactRepository) ListByMembers(ctx context.Context, memberIDs []string) ([]*repository.EmergencyContact, error) {
	args := m.Called(ctx, memberIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.EmergencyContact), args.Error(1)
}

type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) GetOrCreate(ctx context.Context, name string) (*repository.Group, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Group), args.Error(1)
}

func (m *MockGroupRepository) GetByName(ctx context.Context, name string) (*repository.Group, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Group), args.Error(1)
}

func (m *MockGroupRepository) List(ctx context.Context) ([]*repository.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Group), args.Error(1)
}

type MockExcursionRepository struct {
	mock.Mock
}

func (m *MockExcursionRepository) Get(ctx context.Context, id int64) (*repository.Excursion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Excursion), args.Error(1)
}

type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) Get(ctx context.Context, id int64) (*repository.Statement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Statement), args.Error(1)
}

func (m *MockStatementRepository) SetStatus(ctx context.Context, id int64, status model.StatementStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStatementRepository) SetShortDescription(ctx context.Context, id int64, description string) error {
	args := m.Called(ctx, id, description)
	return args.Error(0)
}

package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jdav-kompass/kompass/internal/memberscsv"
	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/jdav-kompass/kompass/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	emmaRow  = ",Emma,Bergmann,emma@example.org,,0761 1234,Hauptstr. 1,79098,Freiburg,2006-01-01,female,Jugend 1;Jugendleiter,true,,131/00/007/4711,,Sabine Bergmann,Mutter,0761 5678"
	jonasRow = ",Jonas,Weber,,,,,,,2010-05-17,male,,false,,,,,,"
	lenaRow  = ",Lena,,,,,,,,2011-02-02,female,,false,,,,,,"
)

func importCSV(rows ...string) string {
	lines := append([]string{strings.Join(memberscsv.Header(1), ",")}, rows...)
	return strings.Join(lines, "\n") + "\n"
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func expectEmma(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
	mr.On("Create", mock.Anything, mock.MatchedBy(func(m *repository.Member) bool {
		return m.Prename == "Emma" && m.DAVBadgeNo == "131/00/007/4711" && m.SwimmingBadge
	})).Return(nil).Once()
	gr.On("GetOrCreate", mock.Anything, "Jugend 1").Return(&repository.Group{ID: 1, Name: "Jugend 1"}, nil).Once()
	gr.On("GetOrCreate", mock.Anything, "Jugendleiter").Return(&repository.Group{ID: 2, Name: "Jugendleiter"}, nil).Once()
	mr.On("SetGroups", mock.Anything, "id-1", []int64{1, 2}).Return(nil).Once()
	cr.On("Create", mock.Anything, &repository.EmergencyContact{
		ID:       "id-2",
		MemberID: "id-1",
		Name:     "Sabine Bergmann",
		Relation: "Mutter",
		Phone:    "0761 5678",
		Position: 0,
	}).Return(nil).Once()
}

func expectJonas(mr *MockMemberRepository) {
	mr.On("Create", mock.Anything, mock.MatchedBy(func(m *repository.Member) bool {
		return m.Prename == "Jonas" && m.Gender == "male"
	})).Return(nil).Once()
}

func TestMemberService_ImportCSV(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		opts          ImportOptions
		setupMocks    func(*MockMemberRepository, *MockEmergencyContactRepository, *MockGroupRepository)
		expectedError bool
		errorCode     ErrorCode
		nilResult     bool
		created       int
		failedRows    []int
	}{
		{
			name:  "success",
			input: importCSV(emmaRow, jonasRow),
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				expectEmma(mr, cr, gr)
				expectJonas(mr)
			},
			created: 2,
		},
		{
			name:  "abort on invalid row keeps earlier rows",
			input: importCSV(emmaRow, lenaRow, jonasRow),
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				expectEmma(mr, cr, gr)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidCSV,
			created:       1,
			failedRows:    []int{2},
		},
		{
			name:  "skip invalid rows",
			input: importCSV(emmaRow, lenaRow, jonasRow),
			opts:  ImportOptions{SkipInvalid: true},
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				expectEmma(mr, cr, gr)
				expectJonas(mr)
			},
			created:    2,
			failedRows: []int{2},
		},
		{
			name:  "atomic abort reports nothing created",
			input: importCSV(emmaRow, lenaRow),
			opts:  ImportOptions{Atomic: true},
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				expectEmma(mr, cr, gr)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidCSV,
			created:       0,
			failedRows:    []int{2},
		},
		{
			name:          "header missing column",
			input:         "prename,lastname\nEmma,Bergmann\n",
			setupMocks:    func(*MockMemberRepository, *MockEmergencyContactRepository, *MockGroupRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidCSV,
			nilResult:     true,
		},
		{
			name:          "empty input",
			input:         "",
			setupMocks:    func(*MockMemberRepository, *MockEmergencyContactRepository, *MockGroupRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidCSV,
			nilResult:     true,
		},
		{
			name:  "create member failure",
			input: importCSV(jonasRow),
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				mr.On("Create", mock.Anything, mock.Anything).Return(errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
			created:       0,
		},
		{
			name:  "group failure",
			input: importCSV(emmaRow),
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				mr.On("Create", mock.Anything, mock.Anything).Return(nil)
				gr.On("GetOrCreate", mock.Anything, "Jugend 1").Return(nil, errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
			created:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockMemberRepo := new(MockMemberRepository)
			mockContactRepo := new(MockEmergencyContactRepository)
			mockGroupRepo := new(MockGroupRepository)

			tt.setupMocks(mockMemberRepo, mockContactRepo, mockGroupRepo)

			service := NewMemberService(mockTx).
				WithMemberRepo(mockMemberRepo).
				WithEmergencyContactRepo(mockContactRepo).
				WithGroupRepo(mockGroupRepo).
				WithIDGenerator(sequentialIDs())

			got, err := service.ImportCSV(context.Background(), strings.NewReader(tt.input), tt.opts)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			if tt.nilResult {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.created, got.Created)
			assert.Len(t, got.Members, tt.created)
			assert.Equal(t, 1, got.ContactGroups)

			rows := make([]int, 0, len(got.Failed))
			for _, f := range got.Failed {
				rows = append(rows, f.Row)
			}
			if tt.failedRows == nil {
				assert.Empty(t, rows)
			} else {
				assert.Equal(t, tt.failedRows, rows)
			}

			mockMemberRepo.AssertExpectations(t)
			mockContactRepo.AssertExpectations(t)
			mockGroupRepo.AssertExpectations(t)
		})
	}
}

func TestMemberService_ImportCSV_ReportsField(t *testing.T) {
	service := NewMemberService(new(MockTransactor)).
		WithMemberRepo(new(MockMemberRepository)).
		WithEmergencyContactRepo(new(MockEmergencyContactRepository)).
		WithGroupRepo(new(MockGroupRepository))

	got, err := service.ImportCSV(context.Background(), strings.NewReader(importCSV(lenaRow)), ImportOptions{})
	require.NotNil(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Failed, 1)
	assert.Equal(t, 1, got.Failed[0].Row)
	assert.Equal(t, memberscsv.ColLastname, got.Failed[0].Field)
	assert.Equal(t, 0, got.Created)
}

func TestMemberService_ImportCSV_AssignsContactPositions(t *testing.T) {
	row := ",Jonas,Weber,,,,,,,2010-05-17,male,,false,,,,Anna Weber,Mutter,0761 1,Paul Weber,Vater,0761 2"
	input := strings.Join(memberscsv.Header(2), ",") + "\n" + row + "\n"

	mockMemberRepo := new(MockMemberRepository)
	mockContactRepo := new(MockEmergencyContactRepository)

	mockMemberRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockContactRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *repository.EmergencyContact) bool {
		return c.Name == "Anna Weber" && c.Position == 0 && c.MemberID == "id-1"
	})).Return(nil).Once()
	mockContactRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *repository.EmergencyContact) bool {
		return c.Name == "Paul Weber" && c.Position == 1 && c.MemberID == "id-1"
	})).Return(nil).Once()

	service := NewMemberService(new(MockTransactor)).
		WithMemberRepo(mockMemberRepo).
		WithEmergencyContactRepo(mockContactRepo).
		WithGroupRepo(new(MockGroupRepository)).
		WithIDGenerator(sequentialIDs())

	got, err := service.ImportCSV(context.Background(), strings.NewReader(input), ImportOptions{})
	assert.Nil(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Created)
	assert.Equal(t, 2, got.ContactGroups)

	mockMemberRepo.AssertExpectations(t)
	mockContactRepo.AssertExpectations(t)
}

func TestMemberService_ExportCSV(t *testing.T) {
	emma := &repository.Member{
		ID:            "id-1",
		Prename:       "Emma",
		Lastname:      "Bergmann",
		Email:         "emma@example.org",
		BirthDate:     time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:        "female",
		SwimmingBadge: true,
		DAVBadgeNo:    "131/00/007/4711",
	}
	jonas := &repository.Member{
		ID:        "id-3",
		Prename:   "Jonas",
		Lastname:  "Weber",
		BirthDate: time.Date(2010, 5, 17, 0, 0, 0, 0, time.UTC),
		Gender:    "male",
	}

	tests := []struct {
		name          string
		opts          ExportOptions
		setupMocks    func(*MockMemberRepository, *MockEmergencyContactRepository, *MockGroupRepository)
		expectedError bool
		errorCode     ErrorCode
		expectedRows  int
		contactGroups int
	}{
		{
			name: "success",
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				mr.On("List", mock.Anything, repository.MemberFilter{}).Return([]*repository.Member{emma, jonas}, nil)
				mr.On("GroupNames", mock.Anything, []string{"id-1", "id-3"}).Return(map[string][]string{
					"id-1": {"Jugend 1", "Jugendleiter"},
				}, nil)
				cr.On("ListByMembers", mock.Anything, []string{"id-1", "id-3"}).Return([]*repository.EmergencyContact{
					{ID: "c1", MemberID: "id-1", Name: "Sabine Bergmann", Relation: "Mutter", Phone: "0761 5678", Position: 0},
					{ID: "c2", MemberID: "id-1", Name: "Thomas Bergmann", Relation: "Vater", Position: 1},
				}, nil)
			},
			expectedRows:  2,
			contactGroups: 2,
		},
		{
			name: "minimum contact width",
			opts: ExportOptions{ContactGroups: 3},
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				mr.On("List", mock.Anything, repository.MemberFilter{}).Return([]*repository.Member{jonas}, nil)
				mr.On("GroupNames", mock.Anything, []string{"id-3"}).Return(map[string][]string{}, nil)
				cr.On("ListByMembers", mock.Anything, []string{"id-3"}).Return([]*repository.EmergencyContact{}, nil)
			},
			expectedRows:  1,
			contactGroups: 3,
		},
		{
			name: "filtered by group",
			opts: ExportOptions{GroupName: "Jugend 1"},
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				gr.On("GetByName", mock.Anything, "Jugend 1").Return(&repository.Group{ID: 1, Name: "Jugend 1"}, nil)
				mr.On("List", mock.Anything, repository.MemberFilter{GroupName: "Jugend 1"}).Return([]*repository.Member{emma}, nil)
				mr.On("GroupNames", mock.Anything, []string{"id-1"}).Return(map[string][]string{"id-1": {"Jugend 1"}}, nil)
				cr.On("ListByMembers", mock.Anything, []string{"id-1"}).Return([]*repository.EmergencyContact{}, nil)
			},
			expectedRows: 1,
		},
		{
			name: "unknown group",
			opts: ExportOptions{GroupName: "Jugend 9"},
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				gr.On("GetByName", mock.Anything, "Jugend 9").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name: "list failure",
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository, gr *MockGroupRepository) {
				mr.On("List", mock.Anything, repository.MemberFilter{}).Return(nil, errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMemberRepo := new(MockMemberRepository)
			mockContactRepo := new(MockEmergencyContactRepository)
			mockGroupRepo := new(MockGroupRepository)

			tt.setupMocks(mockMemberRepo, mockContactRepo, mockGroupRepo)

			service := NewMemberService(new(MockTransactor)).
				WithMemberRepo(mockMemberRepo).
				WithEmergencyContactRepo(mockContactRepo).
				WithGroupRepo(mockGroupRepo)

			var buf bytes.Buffer
			err := service.ExportCSV(context.Background(), &buf, tt.opts)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Zero(t, buf.Len())
			} else {
				require.Nil(t, err)

				members, width, decErr := memberscsv.Decode(&buf)
				require.NoError(t, decErr)
				assert.Len(t, members, tt.expectedRows)
				if tt.contactGroups > 0 {
					assert.Equal(t, tt.contactGroups, width)
				}
			}

			mockMemberRepo.AssertExpectations(t)
			mockContactRepo.AssertExpectations(t)
			mockGroupRepo.AssertExpectations(t)
		})
	}
}

func TestMemberService_ExportCSV_ContactsInOrder(t *testing.T) {
	mockMemberRepo := new(MockMemberRepository)
	mockContactRepo := new(MockEmergencyContactRepository)

	mockMemberRepo.On("List", mock.Anything, repository.MemberFilter{}).Return([]*repository.Member{{
		ID:        "id-1",
		Prename:   "Emma",
		Lastname:  "Bergmann",
		BirthDate: time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:    "female",
	}}, nil)
	mockMemberRepo.On("GroupNames", mock.Anything, []string{"id-1"}).Return(map[string][]string{"id-1": {"Jugend 1", "Jugendleiter"}}, nil)
	mockContactRepo.On("ListByMembers", mock.Anything, []string{"id-1"}).Return([]*repository.EmergencyContact{
		{ID: "c1", MemberID: "id-1", Name: "Sabine Bergmann", Relation: "Mutter", Position: 0},
		{ID: "c2", MemberID: "id-1", Name: "Thomas Bergmann", Relation: "Vater", Position: 1},
	}, nil)

	service := NewMemberService(new(MockTransactor)).
		WithMemberRepo(mockMemberRepo).
		WithEmergencyContactRepo(mockContactRepo).
		WithGroupRepo(new(MockGroupRepository))

	var buf bytes.Buffer
	require.Nil(t, service.ExportCSV(context.Background(), &buf, ExportOptions{}))
	data := buf.Bytes()

	// the reader assigns no ids, so check the id column as written
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	idCol := slices.Index(records[0], memberscsv.ColID)
	require.GreaterOrEqual(t, idCol, 0)
	assert.Equal(t, "id-1", records[1][idCol])

	members, _, err := memberscsv.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, members, 1)

	m := members[0]
	assert.Empty(t, m.ID)
	assert.Equal(t, []string{"Jugend 1", "Jugendleiter"}, m.Groups)
	require.Len(t, m.EmergencyContacts, 2)
	assert.Equal(t, "Sabine Bergmann", m.EmergencyContacts[0].Name)
	assert.Equal(t, "Thomas Bergmann", m.EmergencyContacts[1].Name)
}

func TestMemberService_GetMember(t *testing.T) {
	tests := []struct {
		name          string
		id            string
		setupMocks    func(*MockMemberRepository, *MockEmergencyContactRepository)
		expectedError bool
		errorCode     ErrorCode
		expected      *model.Member
	}{
		{
			name: "success",
			id:   "id-1",
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository) {
				mr.On("Get", mock.Anything, "id-1").Return(&repository.Member{
					ID:        "id-1",
					Prename:   "Emma",
					Lastname:  "Bergmann",
					BirthDate: time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
					Gender:    "female",
				}, nil)
				mr.On("GroupNames", mock.Anything, []string{"id-1"}).Return(map[string][]string{"id-1": {"Jugend 1"}}, nil)
				cr.On("ListByMembers", mock.Anything, []string{"id-1"}).Return([]*repository.EmergencyContact{
					{ID: "c1", MemberID: "id-1", Name: "Sabine Bergmann", Relation: "Mutter"},
				}, nil)
			},
			expected: &model.Member{
				ID:        "id-1",
				Prename:   "Emma",
				Lastname:  "Bergmann",
				BirthDate: time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
				Gender:    model.GenderFemale,
				Groups:    []string{"Jugend 1"},
				EmergencyContacts: []*model.EmergencyContact{
					{ID: "c1", MemberID: "id-1", Name: "Sabine Bergmann", Relation: "Mutter"},
				},
			},
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository) {
				mr.On("Get", mock.Anything, "missing").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name: "get failure",
			id:   "id-1",
			setupMocks: func(mr *MockMemberRepository, cr *MockEmergencyContactRepository) {
				mr.On("Get", mock.Anything, "id-1").Return(nil, errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMemberRepo := new(MockMemberRepository)
			mockContactRepo := new(MockEmergencyContactRepository)

			tt.setupMocks(mockMemberRepo, mockContactRepo)

			service := NewMemberService(new(MockTransactor)).
				WithMemberRepo(mockMemberRepo).
				WithEmergencyContactRepo(mockContactRepo)

			got, err := service.GetMember(context.Background(), tt.id)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tt.expected, got)
			}

			mockMemberRepo.AssertExpectations(t)
			mockContactRepo.AssertExpectations(t)
		})
	}
}

func TestMemberService_DeleteMember(t *testing.T) {
	tests := []struct {
		name      string
		repoErr   error
		errorCode ErrorCode
	}{
		{name: "success"},
		{name: "not found", repoErr: repository.ErrNotFound, errorCode: ErrorCodeNotFound},
		{name: "delete failure", repoErr: errors.New("db error"), errorCode: ErrorCodeUnspecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMemberRepo := new(MockMemberRepository)
			mockMemberRepo.On("Delete", mock.Anything, "id-1").Return(tt.repoErr)

			service := NewMemberService(new(MockTransactor)).WithMemberRepo(mockMemberRepo)

			err := service.DeleteMember(context.Background(), "id-1")
			if tt.repoErr != nil {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockMemberRepo.AssertExpectations(t)
		})
	}
}

func TestMemberService_ListGroups(t *testing.T) {
	mockGroupRepo := new(MockGroupRepository)
	mockGroupRepo.On("List", mock.Anything).Return([]*repository.Group{
		{ID: 1, Name: "Jugend 1", YearFrom: 2008, YearTo: 2010, ShowWebsite: true},
		{ID: 2, Name: "Jugendleiter"},
	}, nil)

	service := NewMemberService(new(MockTransactor)).WithGroupRepo(mockGroupRepo)

	got, err := service.ListGroups(context.Background())
	require.Nil(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, &model.Group{ID: 1, Name: "Jugend 1", YearFrom: 2008, YearTo: 2010, ShowWebsite: true}, got[0])
	assert.Equal(t, "Jugendleiter", got[1].Name)

	mockGroupRepo.AssertExpectations(t)
}

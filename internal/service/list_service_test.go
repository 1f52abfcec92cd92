package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"listTracker/internal/models/list"
	"listTracker/internal/repository"
	"listTracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockListRepository - мок репозитория
type MockListRepository struct {
	mock.Mock
}

func (m *MockListRepository) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockListRepository) CreateList(ctx context.Context, l *list.List) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockListRepository) GetList(ctx context.Context, id uuid.UUID) (*list.List, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*list.List), args.Error(1)
}

func (m *MockListRepository) DeleteList(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListRepository) SetListFlag(ctx context.Context, id uuid.UUID, flag list.Flag, value bool) error {
	return m.Called(ctx, id, flag, value).Error(0)
}

func (m *MockListRepository) AddMember(ctx context.Context, member list.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MockListRepository) CreateSection(ctx context.Context, section *list.Section) error {
	return m.Called(ctx, section).Error(0)
}

func (m *MockListRepository) GetSection(ctx context.Context, id uuid.UUID) (*list.Section, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*list.Section), args.Error(1)
}

func (m *MockListRepository) DeleteSection(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListRepository) GetSectionIDs(ctx context.Context, page, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockListRepository) CompactSection(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockListRepository) CreateItem(ctx context.Context, item *list.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockListRepository) GetItem(ctx context.Context, id uuid.UUID) (*list.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*list.Item), args.Error(1)
}

func (m *MockListRepository) UpdateItem(ctx context.Context, item *list.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockListRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListRepository) ReindexItem(ctx context.Context, sectionID, itemID uuid.UUID, newIndex, oldIndex int) error {
	return m.Called(ctx, sectionID, itemID, newIndex, oldIndex).Error(0)
}

func (m *MockListRepository) ReopenItem(ctx context.Context, item *list.Item, oldIndex int) error {
	return m.Called(ctx, item, oldIndex).Error(0)
}

func (m *MockListRepository) CreateTag(ctx context.Context, tag *list.Tag) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockListRepository) GetTag(ctx context.Context, id uuid.UUID) (*list.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*list.Tag), args.Error(1)
}

func (m *MockListRepository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListRepository) LinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	return m.Called(ctx, itemID, tagID).Error(0)
}

func (m *MockListRepository) UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	return m.Called(ctx, itemID, tagID).Error(0)
}

func (m *MockListRepository) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	return m.Called(ctx, itemID, userID).Error(0)
}

func (m *MockListRepository) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	return m.Called(ctx, itemID, userID).Error(0)
}

var _ service.ListRepository = (*MockListRepository)(nil)

// fixture собирает список с одной секцией из n незавершённых элементов
func fixture(n int) (*list.List, *list.Section) {
	l := &list.List{ID: uuid.New(), Name: "Groceries", OwnerID: uuid.New()}
	section := &list.Section{ID: uuid.New(), ListID: l.ID, Name: "Todo"}
	for i := 0; i < n; i++ {
		section.Items = append(section.Items, list.Item{
			ID:           uuid.New(),
			SectionID:    section.ID,
			Name:         "item",
			Status:       list.StatusPending,
			Priority:     list.PriorityLow,
			SectionIndex: i,
		})
	}
	l.Sections = []list.Section{*section}
	return l, section
}

func businessCode(t *testing.T, err error) string {
	t.Helper()
	var busErr *service.BusinessError
	require.True(t, errors.As(err, &busErr), "ожидалась бизнес-ошибка, получено %v", err)
	return busErr.Code
}

// TestListService_HealthCheck тестирует HealthCheck
func TestListService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockListRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockListRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockListRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockListRepository)
			tt.setupMock(mockRepo)

			svc := service.NewListService(mockRepo, service.DBType)
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestListService_CreateList тестирует валидацию имени и добавление владельца
func TestListService_CreateList(t *testing.T) {
	owner := list.User{ID: uuid.New(), Username: "ann", Color: list.ColorPink}

	tests := []struct {
		name      string
		owner     list.User
		listName  string
		setupMock func(*MockListRepository)
		wantCode  string
	}{
		{
			name:     "success",
			owner:    owner,
			listName: "  Weekend plans  ",
			setupMock: func(m *MockListRepository) {
				m.On("CreateList", mock.Anything, mock.MatchedBy(func(l *list.List) bool {
					return l.Name == "Weekend plans" && l.OwnerID == owner.ID
				})).Return(nil)
				m.On("AddMember", mock.Anything, mock.MatchedBy(func(member list.Member) bool {
					return member.User.ID == owner.ID
				})).Return(nil)
			},
		},
		{
			name:      "error - empty name",
			owner:     owner,
			listName:  "   ",
			setupMock: func(m *MockListRepository) {},
			wantCode:  service.CodeValidation,
		},
		{
			name:      "error - name too long",
			owner:     owner,
			listName:  strings.Repeat("a", 65),
			setupMock: func(m *MockListRepository) {},
			wantCode:  service.CodeValidation,
		},
		{
			name:      "error - forbidden characters",
			owner:     owner,
			listName:  "list<script>",
			setupMock: func(m *MockListRepository) {},
			wantCode:  service.CodeValidation,
		},
		{
			name:      "error - no session user",
			owner:     list.User{},
			listName:  "Chores",
			setupMock: func(m *MockListRepository) {},
			wantCode:  service.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockListRepository)
			tt.setupMock(mockRepo)
			svc := service.NewListService(mockRepo, service.InMemoryType)

			l, err := svc.CreateList(context.Background(), tt.owner, tt.listName)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, businessCode(t, err))
				assert.Nil(t, l)
			} else {
				require.NoError(t, err)
				assert.Len(t, l.Members, 1)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestListService_GetList тестирует перевод ErrNotFound
func TestListService_GetList(t *testing.T) {
	mockRepo := new(MockListRepository)
	id := uuid.New()
	mockRepo.On("GetList", mock.Anything, id).Return(nil, repository.ErrNotFound)

	svc := service.NewListService(mockRepo, service.DBType)
	_, err := svc.GetList(context.Background(), id)

	assert.Equal(t, service.CodeNotFound, businessCode(t, err))
}

// TestListService_SetListFlag тестирует проверку имени флага
func TestListService_SetListFlag(t *testing.T) {
	mockRepo := new(MockListRepository)
	id := uuid.New()
	mockRepo.On("SetListFlag", mock.Anything, id, list.FlagDueDates, true).Return(nil)

	svc := service.NewListService(mockRepo, service.DBType)

	assert.NoError(t, svc.SetListFlag(context.Background(), id, list.FlagDueDates, true))
	err := svc.SetListFlag(context.Background(), id, list.Flag("hasColors"), true)
	assert.Equal(t, service.CodeValidation, businessCode(t, err))
	mockRepo.AssertExpectations(t)
}

// TestListService_ReindexItem тестирует проверки перед перестановкой
func TestListService_ReindexItem(t *testing.T) {
	l, section := fixture(4)
	moved := section.Items[3]

	tests := []struct {
		name      string
		listID    uuid.UUID
		itemID    uuid.UUID
		newIndex  int
		oldIndex  int
		setupMock func(*MockListRepository)
		wantCode  string
	}{
		{
			name:     "success - move 3 to 1",
			listID:   l.ID,
			itemID:   moved.ID,
			newIndex: 1,
			oldIndex: 3,
			setupMock: func(m *MockListRepository) {
				m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
				m.On("ReindexItem", mock.Anything, section.ID, moved.ID, 1, 3).Return(nil)
			},
		},
		{
			name:     "noop - same index",
			listID:   l.ID,
			itemID:   moved.ID,
			newIndex: 3,
			oldIndex: 3,
			setupMock: func(m *MockListRepository) {
				m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
			},
		},
		{
			name:     "error - stale old index",
			listID:   l.ID,
			itemID:   moved.ID,
			newIndex: 0,
			oldIndex: 2,
			setupMock: func(m *MockListRepository) {
				m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
			},
			wantCode: service.CodeIndexConflict,
		},
		{
			name:     "error - index out of range",
			listID:   l.ID,
			itemID:   moved.ID,
			newIndex: 4,
			oldIndex: 3,
			setupMock: func(m *MockListRepository) {
				m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
			},
			wantCode: service.CodeValidation,
		},
		{
			name:     "error - section of another list",
			listID:   uuid.New(),
			itemID:   moved.ID,
			newIndex: 1,
			oldIndex: 3,
			setupMock: func(m *MockListRepository) {
				m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
			},
			wantCode: service.CodeNotFound,
		},
		{
			name:     "error - unknown item",
			listID:   l.ID,
			itemID:   uuid.New(),
			newIndex: 1,
			oldIndex: 3,
			setupMock: func(m *MockListRepository) {
				m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
			},
			wantCode: service.CodeNotFound,
		},
		{
			name:     "error - concurrent reindex lost the race",
			listID:   l.ID,
			itemID:   moved.ID,
			newIndex: 0,
			oldIndex: 3,
			setupMock: func(m *MockListRepository) {
				m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
				m.On("ReindexItem", mock.Anything, section.ID, moved.ID, 0, 3).Return(repository.ErrIndexConflict)
			},
			wantCode: service.CodeIndexConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockListRepository)
			tt.setupMock(mockRepo)
			svc := service.NewListService(mockRepo, service.DBType)

			err := svc.ReindexItem(context.Background(), tt.listID, section.ID, tt.itemID, tt.newIndex, tt.oldIndex)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, businessCode(t, err))
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestListService_CreateItem тестирует отбрасывание выключенных полей
func TestListService_CreateItem(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ms := int64(3_600_000)

	tests := []struct {
		name         string
		dueDates     bool
		timeTracking bool
		wantDue      bool
		wantMs       bool
	}{
		{name: "both flags off", wantDue: false, wantMs: false},
		{name: "due dates on", dueDates: true, wantDue: true, wantMs: false},
		{name: "time tracking on", timeTracking: true, wantDue: false, wantMs: true},
		{name: "both flags on", dueDates: true, timeTracking: true, wantDue: true, wantMs: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, section := fixture(2)
			l.HasDueDates = tt.dueDates
			l.HasTimeTracking = tt.timeTracking

			mockRepo := new(MockListRepository)
			mockRepo.On("GetSection", mock.Anything, section.ID).Return(section, nil)
			mockRepo.On("GetList", mock.Anything, l.ID).Return(l, nil)
			mockRepo.On("CreateItem", mock.Anything, mock.AnythingOfType("*list.Item")).
				Run(func(args mock.Arguments) {
					args.Get(1).(*list.Item).SectionIndex = 2
				}).
				Return(nil)

			svc := service.NewListService(mockRepo, service.DBType)
			item, err := svc.CreateItem(context.Background(), service.CreateItemInput{
				SectionID:  section.ID,
				Name:       "Milk",
				DateDue:    &due,
				ExpectedMs: &ms,
			})

			require.NoError(t, err)
			assert.Equal(t, 2, item.SectionIndex)
			assert.Equal(t, list.PriorityLow, item.Priority)
			assert.Equal(t, list.StatusPending, item.Status)
			assert.Equal(t, tt.wantDue, item.DateDue != nil)
			assert.Equal(t, tt.wantMs, item.ExpectedMs != nil)
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestListService_CreateItem_Validation тестирует ошибки валидации элемента
func TestListService_CreateItem_Validation(t *testing.T) {
	negative := int64(-1)

	tests := []struct {
		name  string
		input service.CreateItemInput
	}{
		{name: "empty name", input: service.CreateItemInput{SectionID: uuid.New(), Name: " "}},
		{name: "unknown priority", input: service.CreateItemInput{SectionID: uuid.New(), Name: "x", Priority: "Urgent"}},
		{name: "negative duration", input: service.CreateItemInput{SectionID: uuid.New(), Name: "x", ExpectedMs: &negative}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockListRepository)
			svc := service.NewListService(mockRepo, service.DBType)

			_, err := svc.CreateItem(context.Background(), tt.input)
			assert.Equal(t, service.CodeValidation, businessCode(t, err))
			mockRepo.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
		})
	}
}

// TestListService_UpdateItem_RevertMovesToEnd тестирует перенос
// возобновлённого элемента в конец секции
func TestListService_UpdateItem_RevertMovesToEnd(t *testing.T) {
	_, section := fixture(4)
	done := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	item := section.Items[1].Clone()
	item.Status = list.StatusCompleted
	item.DateStarted = &done
	item.DateCompleted = &done

	mockRepo := new(MockListRepository)
	mockRepo.On("GetItem", mock.Anything, item.ID).Return(&item, nil)
	mockRepo.On("ReopenItem", mock.Anything, mock.MatchedBy(func(it *list.Item) bool {
		return it.Status == list.StatusInProgress && it.DateCompleted == nil
	}), 1).Run(func(args mock.Arguments) {
		args.Get(1).(*list.Item).SectionIndex = 3
	}).Return(nil)

	svc := service.NewListService(mockRepo, service.DBType)
	now := done.Add(time.Hour)
	svc.SetClock(func() time.Time { return now })

	updated, err := svc.UpdateItem(context.Background(), item.ID, list.WithStatus(list.StatusInProgress, now))

	require.NoError(t, err)
	assert.Equal(t, 3, updated.SectionIndex)
	assert.Nil(t, updated.DateCompleted)
	require.NotNil(t, updated.DateStarted)
	assert.True(t, updated.DateStarted.Equal(done))
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "ReindexItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
}

// TestListService_UpdateItem_RevertFailure тестирует отказ возобновления без частичной записи
func TestListService_UpdateItem_RevertFailure(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{name: "storage error", repoErr: errors.New("tx aborted")},
		{name: "index moved", repoErr: repository.ErrIndexConflict, wantCode: service.CodeIndexConflict},
		{name: "item gone", repoErr: repository.ErrNotFound, wantCode: service.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, section := fixture(3)
			done := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
			item := section.Items[0].Clone()
			item.Status = list.StatusCompleted
			item.DateCompleted = &done

			mockRepo := new(MockListRepository)
			mockRepo.On("GetItem", mock.Anything, item.ID).Return(&item, nil)
			mockRepo.On("ReopenItem", mock.Anything, mock.Anything, 0).Return(tt.repoErr)

			svc := service.NewListService(mockRepo, service.DBType)
			updated, err := svc.UpdateItem(context.Background(), item.ID, list.WithStatus(list.StatusPending, done))

			require.Error(t, err)
			assert.Nil(t, updated)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, businessCode(t, err))
			} else {
				assert.ErrorContains(t, err, "tx aborted")
			}
			mockRepo.AssertNotCalled(t, "ReindexItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			mockRepo.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
		})
	}
}

// TestListService_UpdateItem_Complete тестирует завершение без перестановки
func TestListService_UpdateItem_Complete(t *testing.T) {
	_, section := fixture(3)
	item := section.Items[0].Clone()

	mockRepo := new(MockListRepository)
	mockRepo.On("GetItem", mock.Anything, item.ID).Return(&item, nil)
	mockRepo.On("UpdateItem", mock.Anything, mock.Anything).Return(nil)

	svc := service.NewListService(mockRepo, service.DBType)
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	updated, err := svc.UpdateItem(context.Background(), item.ID, list.WithStatus(list.StatusCompleted, now))

	require.NoError(t, err)
	assert.Equal(t, 0, updated.SectionIndex)
	require.NotNil(t, updated.DateCompleted)
	assert.True(t, updated.DateCompleted.Equal(now))
	mockRepo.AssertNotCalled(t, "ReindexItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestListService_LinkTag тестирует привязку тега только из того же списка
func TestListService_LinkTag(t *testing.T) {
	l, section := fixture(1)
	tag := list.Tag{ID: uuid.New(), ListID: l.ID, Name: "urgent", Color: list.ColorRed}
	l.Tags = []list.Tag{tag}
	item := section.Items[0].Clone()

	setup := func() *MockListRepository {
		m := new(MockListRepository)
		m.On("GetItem", mock.Anything, item.ID).Return(&item, nil)
		m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
		m.On("GetList", mock.Anything, l.ID).Return(l, nil)
		return m
	}

	t.Run("success", func(t *testing.T) {
		m := setup()
		m.On("LinkTag", mock.Anything, item.ID, tag.ID).Return(nil)
		svc := service.NewListService(m, service.DBType)

		assert.NoError(t, svc.LinkTag(context.Background(), item.ID, tag.ID))
		m.AssertExpectations(t)
	})

	t.Run("error - tag of another list", func(t *testing.T) {
		m := setup()
		svc := service.NewListService(m, service.DBType)

		err := svc.LinkTag(context.Background(), item.ID, uuid.New())
		assert.Equal(t, service.CodeNotFound, businessCode(t, err))
		m.AssertNotCalled(t, "LinkTag", mock.Anything, mock.Anything, mock.Anything)
	})
}

// TestListService_AddAssignee тестирует назначение только участников списка
func TestListService_AddAssignee(t *testing.T) {
	l, section := fixture(1)
	user := list.User{ID: uuid.New(), Username: "bob"}
	l.Members = []list.Member{{User: user, ListID: l.ID}}
	item := section.Items[0].Clone()

	m := new(MockListRepository)
	m.On("GetItem", mock.Anything, item.ID).Return(&item, nil)
	m.On("GetSection", mock.Anything, section.ID).Return(section, nil)
	m.On("GetList", mock.Anything, l.ID).Return(l, nil)
	m.On("AddAssignee", mock.Anything, item.ID, user.ID).Return(nil)

	svc := service.NewListService(m, service.DBType)

	assert.NoError(t, svc.AddAssignee(context.Background(), item.ID, user.ID))
	err := svc.AddAssignee(context.Background(), item.ID, uuid.New())
	assert.Equal(t, service.CodeNotFound, businessCode(t, err))
	m.AssertNumberOfCalls(t, "AddAssignee", 1)
}

// TestListService_CreateTag тестирует проверку цвета тега
func TestListService_CreateTag(t *testing.T) {
	listID := uuid.New()
	m := new(MockListRepository)
	m.On("CreateTag", mock.Anything, mock.AnythingOfType("*list.Tag")).Return(nil)
	svc := service.NewListService(m, service.DBType)

	tag, err := svc.CreateTag(context.Background(), listID, "home", list.ColorEmerald)
	require.NoError(t, err)
	assert.Equal(t, listID, tag.ListID)

	_, err = svc.CreateTag(context.Background(), listID, "home", list.Color("Magenta"))
	assert.Equal(t, service.CodeValidation, businessCode(t, err))
	m.AssertNumberOfCalls(t, "CreateTag", 1)
}

// TestListService_AuditSection тестирует уплотнение через репозиторий
func TestListService_AuditSection(t *testing.T) {
	sectionID := uuid.New()
	m := new(MockListRepository)
	m.On("CompactSection", mock.Anything, sectionID).Return(2, nil)
	svc := service.NewListService(m, service.DBType)

	changed, err := svc.AuditSection(context.Background(), sectionID)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
}

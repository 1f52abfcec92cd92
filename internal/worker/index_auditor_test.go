package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"listTracker/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSections struct {
	mock.Mock
}

func (m *MockSections) GetSectionIDs(ctx context.Context, page, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) AuditSection(ctx context.Context, sectionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sectionID)
	return args.Int(0), args.Error(1)
}

func ids(n int) []uuid.UUID {
	res := make([]uuid.UUID, n)
	for i := range res {
		res[i] = uuid.New()
	}
	return res
}

// TestIndexAuditor_Check тестирует постраничный обход секций
func TestIndexAuditor_Check(t *testing.T) {
	page1, page2 := ids(2), ids(1)
	batch := 2

	sections := new(MockSections)
	sections.On("GetSectionIDs", mock.Anything, 1, 2).Return(page1, nil)
	sections.On("GetSectionIDs", mock.Anything, 2, 2).Return(page2, nil)

	auditor := new(MockAuditor)
	auditor.On("AuditSection", mock.Anything, page1[0]).Return(0, nil)
	auditor.On("AuditSection", mock.Anything, page1[1]).Return(3, nil)
	auditor.On("AuditSection", mock.Anything, page2[0]).Return(0, errors.New("locked"))

	w := worker.NewIndexAuditor(sections, auditor, nil, &batch)
	report, err := w.Check(context.Background())

	require.NoError(t, err)
	assert.Equal(t, worker.Report{Checked: 3, Repaired: 1, Failed: 1}, report)
	sections.AssertExpectations(t)
	auditor.AssertExpectations(t)
}

// TestIndexAuditor_Check_ListError тестирует ошибку получения секций
func TestIndexAuditor_Check_ListError(t *testing.T) {
	sections := new(MockSections)
	sections.On("GetSectionIDs", mock.Anything, 1, 100).Return(nil, errors.New("db down"))

	w := worker.NewIndexAuditor(sections, new(MockAuditor), nil, nil)
	_, err := w.Check(context.Background())

	assert.Error(t, err)
}

// TestIndexAuditor_Start тестирует запуск по тикеру и остановку по контексту
func TestIndexAuditor_Start(t *testing.T) {
	sections := new(MockSections)
	sections.On("GetSectionIDs", mock.Anything, 1, 100).Return([]uuid.UUID{}, nil)

	interval := 10 * time.Millisecond
	w := worker.NewIndexAuditor(sections, new(MockAuditor), &interval, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker не остановился")
	}
	assert.NotEmpty(t, sections.Calls)
}

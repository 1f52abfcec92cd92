package list_test

import (
	"testing"
	"time"

	"listTracker/internal/models/list"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestItemOptions тестирует опции элемента и переходы статуса
func TestItemOptions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	due := now.Add(48 * time.Hour)
	ms := int64(1500)

	item := list.Item{Name: "Milk", Status: list.StatusPending, Priority: list.PriorityLow}
	item.Apply(
		list.WithName(""),
		list.WithPriority("Urgent"),
		list.WithDueDate(&due),
		list.WithExpectedMs(&ms),
	)
	assert.Equal(t, "Milk", item.Name)
	assert.Equal(t, list.PriorityLow, item.Priority)
	require.NotNil(t, item.DateDue)
	require.NotNil(t, item.ExpectedMs)

	ms = 9999
	assert.Equal(t, int64(1500), *item.ExpectedMs, "опция копирует значение")

	item.Apply(list.WithStatus(list.StatusInProgress, now))
	require.NotNil(t, item.DateStarted)
	assert.Nil(t, item.DateCompleted)

	item.Apply(list.WithStatus(list.StatusCompleted, later))
	assert.True(t, item.IsCompleted())
	assert.Equal(t, now, *item.DateStarted, "дата начала не перезаписывается")
	assert.Equal(t, later, *item.DateCompleted)

	item.Apply(list.WithStatus(list.StatusCompleted, later.Add(time.Hour)))
	assert.Equal(t, later, *item.DateCompleted, "повторное завершение не меняет дату")

	item.Apply(list.WithStatus(list.StatusPending, later))
	assert.Nil(t, item.DateCompleted)

	assert.Nil(t, list.WithStatus("Done", now))

	item.Apply(list.WithoutDueDate(), list.WithoutExpectedMs())
	assert.Nil(t, item.DateDue)
	assert.Nil(t, item.ExpectedMs)
}

// TestClone тестирует независимость копии списка
func TestClone(t *testing.T) {
	due := time.Now()
	tag := list.Tag{ID: uuid.New(), Name: "Dairy", Color: list.ColorLime}
	l := &list.List{
		ID:   uuid.New(),
		Name: "Groceries",
		Sections: []list.Section{{
			ID:    uuid.New(),
			Items: []list.Item{{ID: uuid.New(), Name: "Milk", DateDue: &due, Tags: []list.Tag{tag}}},
		}},
		Tags: []list.Tag{tag},
	}

	cp := l.Clone()
	cp.Name = "Other"
	cp.Sections[0].Items[0].Name = "Bread"
	cp.Sections[0].Items[0].Tags[0].Name = "Bakery"
	*cp.Sections[0].Items[0].DateDue = due.Add(time.Hour)
	cp.Tags = append(cp.Tags, list.Tag{ID: uuid.New()})

	assert.Equal(t, "Groceries", l.Name)
	assert.Equal(t, "Milk", l.Sections[0].Items[0].Name)
	assert.Equal(t, "Dairy", l.Sections[0].Items[0].Tags[0].Name)
	assert.Equal(t, due, *l.Sections[0].Items[0].DateDue)
	assert.Len(t, l.Tags, 1)

	var nilList *list.List
	assert.Nil(t, nilList.Clone())
}

// TestLookups тестирует поиск по списку
func TestLookups(t *testing.T) {
	user := list.User{ID: uuid.New(), Username: "anna"}
	item := list.Item{ID: uuid.New(), Assignees: []list.Assignee{{User: user}}}
	l := &list.List{
		Sections: []list.Section{{ID: uuid.New()}, {ID: uuid.New(), Items: []list.Item{item}}},
		Members:  []list.Member{{User: user}},
	}

	s, it := l.FindItem(item.ID)
	require.NotNil(t, it)
	assert.Equal(t, l.Sections[1].ID, s.ID)
	assert.True(t, it.HasAssignee(user.ID))
	assert.False(t, it.HasTag(uuid.New()))

	_, idx := l.Section(l.Sections[1].ID)
	assert.Equal(t, 1, idx)
	_, idx = l.Section(uuid.New())
	assert.Equal(t, -1, idx)

	_, ok := l.Member(user.ID)
	assert.True(t, ok)

	assert.True(t, list.ColorEmerald.Valid())
	assert.False(t, list.Color("Black").Valid())
	assert.True(t, list.FlagDueDates.Valid())
	assert.Less(t, list.PriorityLow.Rank(), list.PriorityHigh.Rank())
}

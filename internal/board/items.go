package board

import (
	"context"
	"fmt"
	"slices"
	"time"

	"listTracker/internal/client"
	"listTracker/internal/handlers/dto"
	"listTracker/internal/models/list"
	"listTracker/internal/ordering"
	"listTracker/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddItem создаёт элемент в конце секции. Срок и оценка времени
// отбрасываются, если в списке выключены соответствующие флаги.
func (b *Board) AddItem(ctx context.Context, sectionID uuid.UUID, name string, priority list.Priority,
	due *time.Time, expectedMs *int64) Result {
	const action = "add_item"

	unlock := b.lock(sectionID)
	defer unlock()

	snap := b.Snapshot()
	if s, _ := snap.Section(sectionID); s == nil {
		return b.fail(action, notFound("секция", sectionID))
	}
	if !snap.HasDueDates {
		due = nil
	}
	if !snap.HasTimeTracking {
		expectedMs = nil
	}

	req := dto.CreateItemRequest{
		SectionID: sectionID,
		Name:      name,
		Priority:  priority,
		DueDate:   due,
		Duration:  expectedMs,
	}

	return b.apply(ctx, action,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.CreateItem(ctx, req)
		},
		func(l *list.List, res client.Response) (*list.List, error) {
			id, err := res.ID()
			if err != nil {
				return nil, err
			}
			s, _ := l.Section(sectionID)
			if s == nil {
				return nil, notFound("секция", sectionID)
			}

			item := list.Item{
				ID:           id,
				SectionID:    sectionID,
				Name:         name,
				Status:       list.StatusPending,
				Priority:     priority,
				SectionIndex: len(s.Items),
				DateCreated:  b.now(),
				Tags:         []list.Tag{},
				Assignees:    []list.Assignee{},
			}
			item.Apply(list.WithDueDate(due), list.WithExpectedMs(expectedMs))

			s.Items, err = ordering.Append(s.Items, item)
			if err != nil {
				return nil, err
			}
			return l, nil
		})
}

func (b *Board) DeleteItem(ctx context.Context, itemID uuid.UUID) Result {
	const action = "delete_item"

	sectionID, ok := b.sectionOf(itemID)
	if !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	return b.reconcile(ctx, action, sectionID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.DeleteItem(ctx, itemID)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			s, _ := l.Section(sectionID)
			if s == nil {
				return nil, notFound("секция", sectionID)
			}
			items, err := ordering.Remove(s.Items, itemID)
			if err != nil {
				return nil, err
			}
			s.Items = items
			return l, nil
		})
}

// MoveItem переставляет элемент после перетаскивания. visual содержит
// элементы секции в порядке отображения уже с элементом на новом месте,
// lastVisualIndex его позиция до перетаскивания. Перестановка без
// изменения индекса не уходит на сервис. При INDEX_CONFLICT снимок
// перечитывается с сервиса.
func (b *Board) MoveItem(ctx context.Context, sectionID uuid.UUID, visual []list.Item, itemID uuid.UUID, lastVisualIndex int) Result {
	const action = "move_item"

	unlock := b.lock(sectionID)
	defer unlock()

	move, err := ordering.PlanMove(visual, itemID, lastVisualIndex)
	if err != nil {
		return b.fail(action, err)
	}
	if move.Noop() {
		return b.unchanged()
	}

	res := b.apply(ctx, action,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.ReindexItem(ctx, b.listID, sectionID, itemID, move.NewIndex, move.OldIndex)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			s, _ := l.Section(sectionID)
			if s == nil {
				return nil, notFound("секция", sectionID)
			}
			items, err := ordering.Renumber(s.Items, itemID, move.OldIndex, move.NewIndex)
			if err != nil {
				return nil, err
			}
			s.Items = items
			return l, nil
		})

	if client.HasCode(res.Err, service.CodeIndexConflict) {
		b.log.Info("Board: Порядок секции устарел, перечитываем список",
			zap.String("section_id", sectionID.String()))
		if fresh := b.Refresh(ctx); fresh.OK() {
			res.List = fresh.List
		}
	}
	return res
}

// MoveItemTo переносит незавершённый элемент на позицию position в
// порядке перетаскивания секции (ordering.DragOrder). Завершённые элементы
// упорядочены по дате завершения и не перетаскиваются.
func (b *Board) MoveItemTo(ctx context.Context, itemID uuid.UUID, position int) Result {
	const action = "move_item"

	sectionID, ok := b.sectionOf(itemID)
	if !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	snap := b.Snapshot()
	s, _ := snap.Section(sectionID)
	display := ordering.DragOrder(s.Items)
	pending := ordering.Pending(display)
	if position < 0 || position >= pending {
		return b.fail(action, fmt.Errorf("%w: позиция %d из %d незавершённых", ordering.ErrVisualIndex, position, pending))
	}

	from := slices.IndexFunc(display, func(it list.Item) bool { return it.ID == itemID })
	moved := display[from]
	if moved.IsCompleted() {
		return b.fail(action, fmt.Errorf("%w: завершённый элемент %s", ordering.ErrVisualIndex, itemID))
	}
	visual := slices.Delete(slices.Clone(display), from, from+1)
	visual = slices.Insert(visual, position, moved)

	return b.MoveItem(ctx, sectionID, visual, itemID, from)
}

// SetStatus меняет статус. Элемент, возвращённый из Completed,
// уходит в конец секции так же, как на сервисе.
func (b *Board) SetStatus(ctx context.Context, itemID uuid.UUID, status list.Status) Result {
	const action = "set_status"

	if !status.Valid() {
		return b.fail(action, fmt.Errorf("неизвестный статус %q", status))
	}
	return b.updateItem(ctx, action, itemID, dto.UpdateItemRequest{Status: &status},
		func(s *list.Section, it *list.Item) error {
			wasCompleted := it.IsCompleted()
			it.Apply(list.WithStatus(status, b.now()))
			if !wasCompleted || it.IsCompleted() {
				return nil
			}

			items, err := ordering.Renumber(s.Items, it.ID, it.SectionIndex, len(s.Items)-1)
			if err != nil {
				return err
			}
			s.Items = items
			return nil
		})
}

// SetDueDate задаёт срок; nil снимает его.
func (b *Board) SetDueDate(ctx context.Context, itemID uuid.UUID, due *time.Time) Result {
	req := dto.UpdateItemRequest{DateDue: due, ClearDateDue: due == nil}
	return b.updateItem(ctx, "set_due_date", itemID, req,
		func(_ *list.Section, it *list.Item) error {
			if due == nil {
				it.Apply(list.WithoutDueDate())
			} else {
				it.Apply(list.WithDueDate(due))
			}
			return nil
		})
}

// SetExpectedMs задаёт оценку времени; nil снимает её.
func (b *Board) SetExpectedMs(ctx context.Context, itemID uuid.UUID, ms *int64) Result {
	const action = "set_expected_ms"

	if ms != nil && *ms < 0 {
		return b.fail(action, fmt.Errorf("оценка времени не может быть отрицательной: %d", *ms))
	}
	req := dto.UpdateItemRequest{ExpectedMs: ms, ClearExpectedMs: ms == nil}
	return b.updateItem(ctx, action, itemID, req,
		func(_ *list.Section, it *list.Item) error {
			if ms == nil {
				it.Apply(list.WithoutExpectedMs())
			} else {
				it.Apply(list.WithExpectedMs(ms))
			}
			return nil
		})
}

func (b *Board) updateItem(ctx context.Context, action string, itemID uuid.UUID, req dto.UpdateItemRequest,
	fn func(s *list.Section, it *list.Item) error) Result {
	sectionID, ok := b.sectionOf(itemID)
	if !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	return b.reconcile(ctx, action, sectionID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.UpdateItem(ctx, itemID, req)
		},
		func(l *list.List, res client.Response) (*list.List, error) {
			return withItem(l, itemID, func(s *list.Section, it *list.Item) error {
				if err := fn(s, it); err != nil {
					return err
				}
				if res.Item != nil && res.Item.ID == itemID {
					adoptStamps(it, res.Item)
				}
				return nil
			})
		})
}

// adoptStamps переносит на локальный элемент поля, которые проставил
// сервис, чтобы порядок завершённых совпадал с серверным.
func adoptStamps(it, saved *list.Item) {
	it.Status = saved.Status
	it.DateStarted = cloneTime(saved.DateStarted)
	it.DateCompleted = cloneTime(saved.DateCompleted)
	it.DateDue = cloneTime(saved.DateDue)
	if saved.ExpectedMs != nil {
		ms := *saved.ExpectedMs
		it.ExpectedMs = &ms
	} else {
		it.ExpectedMs = nil
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (b *Board) LinkTag(ctx context.Context, itemID, tagID uuid.UUID) Result {
	const action = "link_tag"

	sectionID, ok := b.sectionOf(itemID)
	if !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	unlock := b.lock(sectionID)
	defer unlock()

	snap := b.Snapshot()
	if _, ok := snap.Tag(tagID); !ok {
		return b.fail(action, notFound("тег", tagID))
	}
	if _, it := snap.FindItem(itemID); it != nil && it.HasTag(tagID) {
		return b.unchanged()
	}

	return b.apply(ctx, action,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.LinkTag(ctx, itemID, tagID)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			tag, ok := l.Tag(tagID)
			if !ok {
				return nil, notFound("тег", tagID)
			}
			return withItem(l, itemID, func(_ *list.Section, it *list.Item) error {
				if !it.HasTag(tagID) {
					it.Tags = append(it.Tags, tag)
				}
				return nil
			})
		})
}

func (b *Board) UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) Result {
	const action = "unlink_tag"

	sectionID, ok := b.sectionOf(itemID)
	if !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	return b.reconcile(ctx, action, sectionID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.UnlinkTag(ctx, itemID, tagID)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			return withItem(l, itemID, func(_ *list.Section, it *list.Item) error {
				it.Tags = slices.DeleteFunc(it.Tags, func(t list.Tag) bool { return t.ID == tagID })
				return nil
			})
		})
}

// LinkNewTag создаёт тег в списке и сразу привязывает его к элементу.
func (b *Board) LinkNewTag(ctx context.Context, itemID uuid.UUID, name string, color list.Color) Result {
	const action = "link_new_tag"

	if _, ok := b.sectionOf(itemID); !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	created, tagID := b.createTag(ctx, name, color)
	if !created.OK() {
		return created
	}
	return b.LinkTag(ctx, itemID, tagID)
}

func (b *Board) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) Result {
	const action = "add_assignee"

	sectionID, ok := b.sectionOf(itemID)
	if !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	unlock := b.lock(sectionID)
	defer unlock()

	snap := b.Snapshot()
	if _, ok := snap.Member(userID); !ok {
		return b.fail(action, notFound("участник", userID))
	}
	if _, it := snap.FindItem(itemID); it != nil && it.HasAssignee(userID) {
		return b.unchanged()
	}

	return b.apply(ctx, action,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.AddAssignee(ctx, itemID, userID)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			member, ok := l.Member(userID)
			if !ok {
				return nil, notFound("участник", userID)
			}
			return withItem(l, itemID, func(_ *list.Section, it *list.Item) error {
				if !it.HasAssignee(userID) {
					it.Assignees = append(it.Assignees, list.Assignee{User: member.User, ItemID: itemID})
				}
				return nil
			})
		})
}

func (b *Board) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) Result {
	const action = "remove_assignee"

	sectionID, ok := b.sectionOf(itemID)
	if !ok {
		return b.fail(action, notFound("элемент", itemID))
	}

	return b.reconcile(ctx, action, sectionID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.RemoveAssignee(ctx, itemID, userID)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			return withItem(l, itemID, func(_ *list.Section, it *list.Item) error {
				it.Assignees = slices.DeleteFunc(it.Assignees, func(a list.Assignee) bool { return a.User.ID == userID })
				return nil
			})
		})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listTracker/internal/logger"
	"listTracker/internal/models/list"
	"listTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateItemInput struct {
	SectionID  uuid.UUID
	Name       string
	Priority   list.Priority
	DateDue    *time.Time
	ExpectedMs *int64
}

// CreateItem сохраняет элемент в конец секции. Срок и оценка времени
// отбрасываются, если в списке они выключены.
func (s *ListService) CreateItem(ctx context.Context, in CreateItemInput) (*list.Item, error) {
	name, err := validateName("name", in.Name, maxItemNameLength)
	if err != nil {
		return nil, err
	}
	if in.Priority == "" {
		in.Priority = list.PriorityLow
	}
	if !in.Priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", in.Priority))
	}
	if in.ExpectedMs != nil && *in.ExpectedMs < 0 {
		return nil, NewValidationError("duration", "оценка времени не может быть отрицательной")
	}

	section, err := s.repo.GetSection(ctx, in.SectionID)
	if err != nil {
		return nil, s.fromRepo(err, ResourceSection, in.SectionID, "получение секции")
	}
	l, err := s.repo.GetList(ctx, section.ListID)
	if err != nil {
		return nil, s.fromRepo(err, ResourceList, section.ListID, "получение списка")
	}

	item := &list.Item{
		ID:          uuid.New(),
		SectionID:   section.ID,
		Status:      list.StatusPending,
		DateCreated: s.now(),
	}
	item.Apply(list.WithName(name), list.WithPriority(in.Priority))
	if l.HasDueDates {
		item.Apply(list.WithDueDate(in.DateDue))
	}
	if l.HasTimeTracking {
		item.Apply(list.WithExpectedMs(in.ExpectedMs))
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, s.fromRepo(err, ResourceSection, in.SectionID, "создание элемента")
	}

	logger.Info("Service: Элемент создан",
		zap.String("item_id", item.ID.String()),
		zap.String("section_id", section.ID.String()),
		zap.Int("section_index", item.SectionIndex))
	return item, nil
}

func (s *ListService) GetItem(ctx context.Context, id uuid.UUID) (*list.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, s.fromRepo(err, ResourceItem, id, "получение элемента")
	}
	return item, nil
}

// UpdateItem применяет изменения полей. Элемент, возвращённый из Completed,
// переносится в конец секции, чтобы sectionIndex оставался плотным и
// определял его место среди незавершённых.
func (s *ListService) UpdateItem(ctx context.Context, id uuid.UUID, options ...list.ItemOption) (*list.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, s.fromRepo(err, ResourceItem, id, "получение элемента")
	}

	wasCompleted := item.IsCompleted()
	item.Apply(options...)

	if wasCompleted && !item.IsCompleted() {
		oldIndex := item.SectionIndex
		if err := s.repo.ReopenItem(ctx, item, oldIndex); err != nil {
			if errors.Is(err, repository.ErrIndexConflict) {
				return nil, NewIndexConflict(item.ID.String(), oldIndex, -1)
			}
			return nil, s.fromRepo(err, ResourceItem, id, "возобновление элемента")
		}
		logger.Info("Service: Возобновлённый элемент перенесён в конец секции",
			zap.String("item_id", item.ID.String()),
			zap.Int("old_index", oldIndex),
			zap.Int("new_index", item.SectionIndex))
		return item, nil
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, s.fromRepo(err, ResourceItem, id, "обновление элемента")
	}
	return item, nil
}

func (s *ListService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return s.fromRepo(err, ResourceItem, id, "удаление элемента")
	}
	logger.Info("Service: Элемент удалён", zap.String("item_id", id.String()))
	return nil
}

// listOfItem возвращает список, которому принадлежит элемент.
func (s *ListService) listOfItem(ctx context.Context, itemID uuid.UUID) (*list.List, *list.Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, s.fromRepo(err, ResourceItem, itemID, "получение элемента")
	}
	section, err := s.repo.GetSection(ctx, item.SectionID)
	if err != nil {
		return nil, nil, s.fromRepo(err, ResourceSection, item.SectionID, "получение секции")
	}
	l, err := s.repo.GetList(ctx, section.ListID)
	if err != nil {
		return nil, nil, s.fromRepo(err, ResourceList, section.ListID, "получение списка")
	}
	return l, item, nil
}

func (s *ListService) LinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	l, item, err := s.listOfItem(ctx, itemID)
	if err != nil {
		return err
	}
	if _, ok := l.Tag(tagID); !ok {
		return NewNotFound(ResourceTag, tagID.String())
	}
	if item.HasTag(tagID) {
		return nil
	}
	if err := s.repo.LinkTag(ctx, itemID, tagID); err != nil {
		return s.fromRepo(err, ResourceTag, tagID, "привязка тега")
	}
	return nil
}

func (s *ListService) UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	if err := s.repo.UnlinkTag(ctx, itemID, tagID); err != nil {
		return s.fromRepo(err, ResourceTag, tagID, "отвязка тега")
	}
	return nil
}

func (s *ListService) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	l, item, err := s.listOfItem(ctx, itemID)
	if err != nil {
		return err
	}
	if _, ok := l.Member(userID); !ok {
		return NewNotFound(ResourceMember, userID.String())
	}
	if item.HasAssignee(userID) {
		return nil
	}
	if err := s.repo.AddAssignee(ctx, itemID, userID); err != nil {
		return s.fromRepo(err, ResourceMember, userID, "назначение исполнителя")
	}
	return nil
}

func (s *ListService) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	if err := s.repo.RemoveAssignee(ctx, itemID, userID); err != nil {
		return s.fromRepo(err, ResourceMember, userID, "снятие исполнителя")
	}
	return nil
}

// AuditSection проверяет плотность индексов секции и уплотняет её при разрывах.
func (s *ListService) AuditSection(ctx context.Context, sectionID uuid.UUID) (int, error) {
	changed, err := s.repo.CompactSection(ctx, sectionID)
	if err != nil {
		return 0, s.fromRepo(err, ResourceSection, sectionID, "уплотнение секции")
	}
	if changed > 0 {
		logger.Warn("Service: Исправлены индексы секции",
			zap.String("section_id", sectionID.String()),
			zap.Int("changed", changed))
	}
	return changed, nil
}

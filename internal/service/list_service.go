package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"listTracker/internal/logger"
	"listTracker/internal/models/list"
	"listTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const maxListNameLength = 64
const maxSectionNameLength = 64
const maxTagNameLength = 32
const maxItemNameLength = 256

type ListService struct {
	repo     ListRepository
	RepoType RepoType
	now      func() time.Time
}

func NewListService(repo ListRepository, repoType RepoType) ListService {
	return ListService{
		repo:     repo,
		RepoType: repoType,
		now:      time.Now,
	}
}

func (s *ListService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Проверка здоровья не пройдена", err, zap.String("repo_type", string(s.RepoType)))
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// fromRepo переводит ошибки репозитория в бизнес-ошибки.
func (s *ListService) fromRepo(err error, resource Resource, id uuid.UUID, operation string) error {
	if errors.Is(err, repository.ErrNotFound) {
		logger.Info("Service: Объект не найден",
			zap.String("resource", string(resource)),
			zap.String("target_id", id.String()))
		return NewNotFound(resource, id.String())
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func validateListName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", "название не может быть пустым")
	}
	if utf8.RuneCountInString(name) > maxListNameLength {
		return "", NewValidationError("name", fmt.Sprintf("название длиннее %d символов", maxListNameLength))
	}
	for _, r := range name {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || strings.ContainsRune("-_.'", r)) {
			return "", NewValidationError("name", fmt.Sprintf("недопустимый символ %q", r))
		}
	}
	return name, nil
}

func validateName(field, name string, limit int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError(field, "значение не может быть пустым")
	}
	if utf8.RuneCountInString(name) > limit {
		return "", NewValidationError(field, fmt.Sprintf("значение длиннее %d символов", limit))
	}
	return name, nil
}

func (s *ListService) CreateList(ctx context.Context, owner list.User, name string) (*list.List, error) {
	name, err := validateListName(name)
	if err != nil {
		return nil, err
	}
	if owner.ID == uuid.Nil {
		return nil, NewUnauthenticated("нет пользователя в сессии")
	}

	l := &list.List{
		ID:          uuid.New(),
		Name:        name,
		OwnerID:     owner.ID,
		DateCreated: s.now(),
	}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return nil, fmt.Errorf("создание списка: %w", err)
	}

	member := list.Member{User: owner, ListID: l.ID}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("добавление владельца списка: %w", err)
	}
	l.Members = []list.Member{member}

	logger.Info("Service: Список создан", zap.String("list_id", l.ID.String()))
	return l, nil
}

func (s *ListService) GetList(ctx context.Context, id uuid.UUID) (*list.List, error) {
	l, err := s.repo.GetList(ctx, id)
	if err != nil {
		return nil, s.fromRepo(err, ResourceList, id, "получение списка")
	}
	return l, nil
}

func (s *ListService) DeleteList(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteList(ctx, id); err != nil {
		return s.fromRepo(err, ResourceList, id, "удаление списка")
	}
	return nil
}

func (s *ListService) SetListFlag(ctx context.Context, id uuid.UUID, flag list.Flag, value bool) error {
	if !flag.Valid() {
		return NewValidationError("flag", fmt.Sprintf("неизвестный флаг %q", flag))
	}
	if err := s.repo.SetListFlag(ctx, id, flag, value); err != nil {
		return s.fromRepo(err, ResourceList, id, "обновление флага списка")
	}
	return nil
}

func (s *ListService) AddMember(ctx context.Context, listID uuid.UUID, user list.User) error {
	if user.ID == uuid.Nil {
		return NewValidationError("userId", "id пользователя не может быть пустым")
	}
	if user.Color != "" && !user.Color.Valid() {
		return NewValidationError("color", fmt.Sprintf("неизвестный цвет %q", user.Color))
	}
	if _, err := s.repo.GetList(ctx, listID); err != nil {
		return s.fromRepo(err, ResourceList, listID, "получение списка")
	}
	if err := s.repo.AddMember(ctx, list.Member{User: user, ListID: listID}); err != nil {
		return fmt.Errorf("добавление участника: %w", err)
	}
	return nil
}

func (s *ListService) CreateSection(ctx context.Context, listID uuid.UUID, name string) (*list.Section, error) {
	name, err := validateName("name", name, maxSectionNameLength)
	if err != nil {
		return nil, err
	}

	section := &list.Section{
		ID:     uuid.New(),
		ListID: listID,
		Name:   name,
		Items:  []list.Item{},
	}
	if err := s.repo.CreateSection(ctx, section); err != nil {
		return nil, s.fromRepo(err, ResourceList, listID, "создание секции")
	}
	return section, nil
}

// sectionOfList проверяет, что секция принадлежит списку.
func (s *ListService) sectionOfList(ctx context.Context, listID, sectionID uuid.UUID) (*list.Section, error) {
	section, err := s.repo.GetSection(ctx, sectionID)
	if err != nil {
		return nil, s.fromRepo(err, ResourceSection, sectionID, "получение секции")
	}
	if section.ListID != listID {
		return nil, NewNotFound(ResourceSection, sectionID.String())
	}
	return section, nil
}

func (s *ListService) DeleteSection(ctx context.Context, listID, sectionID uuid.UUID) error {
	if _, err := s.sectionOfList(ctx, listID, sectionID); err != nil {
		return err
	}
	if err := s.repo.DeleteSection(ctx, sectionID); err != nil {
		return s.fromRepo(err, ResourceSection, sectionID, "удаление секции")
	}
	return nil
}

// ReindexItem атомарно переносит элемент на newIndex и сдвигает элементы между
// старой и новой позицией. Запрос с устаревшим oldIndex отклоняется.
func (s *ListService) ReindexItem(ctx context.Context, listID, sectionID, itemID uuid.UUID, newIndex, oldIndex int) error {
	section, err := s.sectionOfList(ctx, listID, sectionID)
	if err != nil {
		return err
	}

	item, _ := section.Item(itemID)
	if item == nil {
		return NewNotFound(ResourceItem, itemID.String())
	}
	if newIndex < 0 || newIndex >= len(section.Items) {
		return NewValidationError("index", fmt.Sprintf("индекс должен быть в диапазоне [0, %d)", len(section.Items)))
	}
	if item.SectionIndex != oldIndex {
		logger.Warn("Service: Устаревший индекс при перестановке",
			zap.String("item_id", itemID.String()),
			zap.Int("expected", oldIndex),
			zap.Int("actual", item.SectionIndex))
		return NewIndexConflict(itemID.String(), oldIndex, item.SectionIndex)
	}
	if newIndex == oldIndex {
		return nil
	}

	err = s.repo.ReindexItem(ctx, sectionID, itemID, newIndex, oldIndex)
	if errors.Is(err, repository.ErrIndexConflict) {
		return NewIndexConflict(itemID.String(), oldIndex, -1)
	}
	if err != nil {
		return s.fromRepo(err, ResourceItem, itemID, "перестановка элемента")
	}

	logger.Info("Service: Элемент переставлен",
		zap.String("item_id", itemID.String()),
		zap.Int("old_index", oldIndex),
		zap.Int("new_index", newIndex))
	return nil
}

func (s *ListService) CreateTag(ctx context.Context, listID uuid.UUID, name string, color list.Color) (*list.Tag, error) {
	name, err := validateName("name", name, maxTagNameLength)
	if err != nil {
		return nil, err
	}
	if !color.Valid() {
		return nil, NewValidationError("color", fmt.Sprintf("неизвестный цвет %q", color))
	}

	tag := &list.Tag{
		ID:     uuid.New(),
		ListID: listID,
		Name:   name,
		Color:  color,
	}
	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, s.fromRepo(err, ResourceList, listID, "создание тега")
	}
	return tag, nil
}

func (s *ListService) DeleteTag(ctx context.Context, listID, tagID uuid.UUID) error {
	tag, err := s.repo.GetTag(ctx, tagID)
	if err != nil {
		return s.fromRepo(err, ResourceTag, tagID, "получение тега")
	}
	if tag.ListID != listID {
		return NewNotFound(ResourceTag, tagID.String())
	}
	if err := s.repo.DeleteTag(ctx, tagID); err != nil {
		return s.fromRepo(err, ResourceTag, tagID, "удаление тега")
	}
	return nil
}

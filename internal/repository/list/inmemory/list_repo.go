package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"listTracker/internal/logger"
	"listTracker/internal/models/list"
	"listTracker/internal/ordering"
	repo "listTracker/internal/repository"

	"github.com/google/uuid"
)

type listRecord struct {
	list     list.List
	sections []uuid.UUID
	members  []uuid.UUID
	tags     []uuid.UUID
}

type sectionRecord struct {
	section list.Section
	items   []uuid.UUID
}

type ListStorage struct {
	mtx       *sync.RWMutex
	lists     map[uuid.UUID]*listRecord
	sections  map[uuid.UUID]*sectionRecord
	items     map[uuid.UUID]*list.Item
	tags      map[uuid.UUID]list.Tag
	users     map[uuid.UUID]list.User
	itemTags  map[uuid.UUID][]uuid.UUID
	assignees map[uuid.UUID][]uuid.UUID
	ids       []uuid.UUID // секции в порядке создания
}

func NewListStorage() *ListStorage {
	return &ListStorage{
		mtx:       &sync.RWMutex{},
		lists:     make(map[uuid.UUID]*listRecord),
		sections:  make(map[uuid.UUID]*sectionRecord),
		items:     make(map[uuid.UUID]*list.Item),
		tags:      make(map[uuid.UUID]list.Tag),
		users:     make(map[uuid.UUID]list.User),
		itemTags:  make(map[uuid.UUID][]uuid.UUID),
		assignees: make(map[uuid.UUID][]uuid.UUID),
		ids:       []uuid.UUID{},
	}
}

func (s *ListStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *ListStorage) CreateList(ctx context.Context, l *list.List) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.lists[l.ID]; ok {
		return repo.ErrAlreadyExists
	}
	if l.DateCreated.IsZero() {
		l.DateCreated = time.Now()
	}

	stored := *l
	stored.Sections, stored.Members, stored.Tags = nil, nil, nil
	s.lists[l.ID] = &listRecord{list: stored}
	return nil
}

func (s *ListStorage) GetList(ctx context.Context, id uuid.UUID) (*list.List, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.lists[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	res := rec.list
	res.Sections = make([]list.Section, 0, len(rec.sections))
	for _, sectionID := range rec.sections {
		res.Sections = append(res.Sections, s.buildSection(s.sections[sectionID]))
	}
	res.Members = make([]list.Member, 0, len(rec.members))
	for _, userID := range rec.members {
		res.Members = append(res.Members, list.Member{User: s.users[userID], ListID: id})
	}
	res.Tags = make([]list.Tag, 0, len(rec.tags))
	for _, tagID := range rec.tags {
		res.Tags = append(res.Tags, s.tags[tagID])
	}
	return &res, nil
}

func (s *ListStorage) DeleteList(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.lists[id]
	if !ok {
		return repo.ErrNotFound
	}
	for _, sectionID := range rec.sections {
		s.deleteSection(sectionID)
	}
	for _, tagID := range rec.tags {
		s.deleteTag(tagID)
	}
	delete(s.lists, id)
	return nil
}

func (s *ListStorage) SetListFlag(ctx context.Context, id uuid.UUID, flag list.Flag, value bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.lists[id]
	if !ok {
		return repo.ErrNotFound
	}
	switch flag {
	case list.FlagTimeTracking:
		rec.list.HasTimeTracking = value
	case list.FlagDueDates:
		rec.list.HasDueDates = value
	}
	return nil
}

func (s *ListStorage) AddMember(ctx context.Context, m list.Member) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.lists[m.ListID]
	if !ok {
		return repo.ErrNotFound
	}
	s.users[m.User.ID] = m.User
	if !slices.Contains(rec.members, m.User.ID) {
		rec.members = append(rec.members, m.User.ID)
	}
	return nil
}

func (s *ListStorage) CreateSection(ctx context.Context, section *list.Section) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.lists[section.ListID]
	if !ok {
		return repo.ErrNotFound
	}

	stored := *section
	stored.Items = nil
	s.sections[section.ID] = &sectionRecord{section: stored}
	rec.sections = append(rec.sections, section.ID)
	s.ids = append(s.ids, section.ID)
	return nil
}

func (s *ListStorage) GetSection(ctx context.Context, id uuid.UUID) (*list.Section, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.sections[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	section := s.buildSection(rec)
	return &section, nil
}

func (s *ListStorage) DeleteSection(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.sections[id]
	if !ok {
		return repo.ErrNotFound
	}
	if l, ok := s.lists[rec.section.ListID]; ok {
		l.sections = slices.DeleteFunc(l.sections, func(v uuid.UUID) bool { return v == id })
	}
	s.deleteSection(id)
	return nil
}

// получение id секций постранично в порядке создания
func (s *ListStorage) GetSectionIDs(ctx context.Context, page, limit int) ([]uuid.UUID, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []uuid.UUID{}
	offset := (page - 1) * limit
	for i := offset; i < len(s.ids) && len(res) < limit; i++ {
		res = append(res, s.ids[i])
	}
	return res, nil
}

func (s *ListStorage) CompactSection(ctx context.Context, id uuid.UUID) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.sections[id]
	if !ok {
		return 0, repo.ErrNotFound
	}

	items := make([]list.Item, 0, len(rec.items))
	for _, itemID := range rec.items {
		items = append(items, *s.items[itemID])
	}
	compacted, changed := ordering.Compact(items)
	for _, it := range compacted {
		s.items[it.ID].SectionIndex = it.SectionIndex
	}
	return changed, nil
}

func (s *ListStorage) CreateItem(ctx context.Context, item *list.Item) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.sections[item.SectionID]
	if !ok {
		return repo.ErrNotFound
	}
	if item.DateCreated.IsZero() {
		item.DateCreated = time.Now()
	}
	item.SectionIndex = len(rec.items)

	stored := item.Clone()
	stored.Tags, stored.Assignees = nil, nil
	s.items[item.ID] = &stored
	rec.items = append(rec.items, item.ID)
	return nil
}

func (s *ListStorage) GetItem(ctx context.Context, id uuid.UUID) (*list.Item, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if _, ok := s.items[id]; !ok {
		return nil, repo.ErrNotFound
	}
	item := s.buildItem(id)
	return &item, nil
}

// обновление полей элемента без изменения sectionIndex
func (s *ListStorage) UpdateItem(ctx context.Context, item *list.Item) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return repo.ErrNotFound
	}

	updated := item.Clone()
	updated.SectionID = stored.SectionID
	updated.SectionIndex = stored.SectionIndex
	updated.DateCreated = stored.DateCreated
	updated.Tags, updated.Assignees = nil, nil
	s.items[item.ID] = &updated
	return nil
}

func (s *ListStorage) DeleteItem(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	item, ok := s.items[id]
	if !ok {
		return repo.ErrNotFound
	}

	rec := s.sections[item.SectionID]
	for _, other := range rec.items {
		if s.items[other].SectionIndex > item.SectionIndex {
			s.items[other].SectionIndex--
		}
	}
	rec.items = slices.DeleteFunc(rec.items, func(v uuid.UUID) bool { return v == id })
	delete(s.items, id)
	delete(s.itemTags, id)
	delete(s.assignees, id)
	return nil
}

func (s *ListStorage) ReindexItem(ctx context.Context, sectionID, itemID uuid.UUID, newIndex, oldIndex int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.moveItem(sectionID, itemID, newIndex, oldIndex)
}

// ReopenItem под одной блокировкой переносит элемент в конец секции и
// сохраняет его поля.
func (s *ListStorage) ReopenItem(ctx context.Context, item *list.Item, oldIndex int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return repo.ErrNotFound
	}
	last := len(s.sections[stored.SectionID].items) - 1
	if err := s.moveItem(stored.SectionID, item.ID, last, oldIndex); err != nil {
		return err
	}

	updated := item.Clone()
	updated.SectionID = stored.SectionID
	updated.SectionIndex = last
	updated.DateCreated = stored.DateCreated
	updated.Tags, updated.Assignees = nil, nil
	s.items[item.ID] = &updated

	item.SectionID = stored.SectionID
	item.SectionIndex = last
	return nil
}

func (s *ListStorage) moveItem(sectionID, itemID uuid.UUID, newIndex, oldIndex int) error {
	rec, ok := s.sections[sectionID]
	if !ok {
		return repo.ErrNotFound
	}
	item, ok := s.items[itemID]
	if !ok || item.SectionID != sectionID {
		return repo.ErrNotFound
	}
	if item.SectionIndex != oldIndex {
		return repo.ErrIndexConflict
	}

	items := make([]list.Item, 0, len(rec.items))
	for _, id := range rec.items {
		items = append(items, *s.items[id])
	}
	renumbered, err := ordering.Renumber(items, itemID, oldIndex, newIndex)
	if err != nil {
		return err
	}
	for _, it := range renumbered {
		s.items[it.ID].SectionIndex = it.SectionIndex
	}
	return nil
}

func (s *ListStorage) CreateTag(ctx context.Context, tag *list.Tag) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.lists[tag.ListID]
	if !ok {
		return repo.ErrNotFound
	}
	s.tags[tag.ID] = *tag
	rec.tags = append(rec.tags, tag.ID)
	return nil
}

func (s *ListStorage) GetTag(ctx context.Context, id uuid.UUID) (*list.Tag, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tag, ok := s.tags[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &tag, nil
}

func (s *ListStorage) DeleteTag(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tag, ok := s.tags[id]
	if !ok {
		return repo.ErrNotFound
	}
	if rec, ok := s.lists[tag.ListID]; ok {
		rec.tags = slices.DeleteFunc(rec.tags, func(v uuid.UUID) bool { return v == id })
	}
	s.deleteTag(id)
	return nil
}

func (s *ListStorage) LinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return repo.ErrNotFound
	}
	if _, ok := s.tags[tagID]; !ok {
		return repo.ErrNotFound
	}
	if !slices.Contains(s.itemTags[itemID], tagID) {
		s.itemTags[itemID] = append(s.itemTags[itemID], tagID)
	}
	return nil
}

func (s *ListStorage) UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !slices.Contains(s.itemTags[itemID], tagID) {
		return repo.ErrNotFound
	}
	s.itemTags[itemID] = slices.DeleteFunc(s.itemTags[itemID], func(v uuid.UUID) bool { return v == tagID })
	return nil
}

func (s *ListStorage) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return repo.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return repo.ErrNotFound
	}
	if !slices.Contains(s.assignees[itemID], userID) {
		s.assignees[itemID] = append(s.assignees[itemID], userID)
	}
	return nil
}

func (s *ListStorage) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !slices.Contains(s.assignees[itemID], userID) {
		return repo.ErrNotFound
	}
	s.assignees[itemID] = slices.DeleteFunc(s.assignees[itemID], func(v uuid.UUID) bool { return v == userID })
	return nil
}

// вызывается под блокировкой записи
func (s *ListStorage) deleteSection(id uuid.UUID) {
	rec, ok := s.sections[id]
	if !ok {
		return
	}
	for _, itemID := range rec.items {
		delete(s.items, itemID)
		delete(s.itemTags, itemID)
		delete(s.assignees, itemID)
	}
	delete(s.sections, id)
	s.ids = slices.DeleteFunc(s.ids, func(v uuid.UUID) bool { return v == id })
}

// вызывается под блокировкой записи
func (s *ListStorage) deleteTag(id uuid.UUID) {
	for itemID, tagIDs := range s.itemTags {
		s.itemTags[itemID] = slices.DeleteFunc(tagIDs, func(v uuid.UUID) bool { return v == id })
	}
	delete(s.tags, id)
}

// вызывается под блокировкой чтения
func (s *ListStorage) buildSection(rec *sectionRecord) list.Section {
	section := rec.section
	items := make([]list.Item, 0, len(rec.items))
	for _, itemID := range rec.items {
		items = append(items, s.buildItem(itemID))
	}
	section.Items = ordering.ByIndex(items)
	return section
}

// вызывается под блокировкой чтения
func (s *ListStorage) buildItem(id uuid.UUID) list.Item {
	item := s.items[id].Clone()
	item.Tags = make([]list.Tag, 0, len(s.itemTags[id]))
	for _, tagID := range s.itemTags[id] {
		item.Tags = append(item.Tags, s.tags[tagID])
	}
	item.Assignees = make([]list.Assignee, 0, len(s.assignees[id]))
	for _, userID := range s.assignees[id] {
		item.Assignees = append(item.Assignees, list.Assignee{User: s.users[userID], ItemID: id})
	}
	return item
}

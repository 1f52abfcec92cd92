package board

import (
	"context"
	"fmt"
	"slices"

	"listTracker/internal/client"
	"listTracker/internal/models/list"

	"github.com/google/uuid"
)

func (b *Board) CreateTag(ctx context.Context, name string, color list.Color) Result {
	res, _ := b.createTag(ctx, name, color)
	return res
}

func (b *Board) createTag(ctx context.Context, name string, color list.Color) (Result, uuid.UUID) {
	const action = "create_tag"

	if !color.Valid() {
		return b.fail(action, fmt.Errorf("неизвестный цвет %q", color)), uuid.Nil
	}

	var tagID uuid.UUID
	res := b.reconcile(ctx, action, b.listID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.CreateTag(ctx, b.listID, name, color)
		},
		func(l *list.List, res client.Response) (*list.List, error) {
			id, err := res.ID()
			if err != nil {
				return nil, err
			}
			tagID = id
			l.Tags = append(l.Tags, list.Tag{ID: id, ListID: l.ID, Name: name, Color: color})
			return l, nil
		})
	return res, tagID
}

// DeleteTag удаляет тег из списка и отвязывает его от всех элементов.
func (b *Board) DeleteTag(ctx context.Context, tagID uuid.UUID) Result {
	const action = "delete_tag"

	if _, ok := b.Snapshot().Tag(tagID); !ok {
		return b.fail(action, notFound("тег", tagID))
	}

	return b.reconcile(ctx, action, b.listID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.DeleteTag(ctx, b.listID, tagID)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			byID := func(t list.Tag) bool { return t.ID == tagID }
			l.Tags = slices.DeleteFunc(l.Tags, byID)
			for si := range l.Sections {
				items := l.Sections[si].Items
				for ii := range items {
					items[ii].Tags = slices.DeleteFunc(items[ii].Tags, byID)
				}
			}
			return l, nil
		})
}

func (b *Board) AddSection(ctx context.Context, name string) Result {
	return b.reconcile(ctx, "add_section", b.listID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.CreateSection(ctx, b.listID, name)
		},
		func(l *list.List, res client.Response) (*list.List, error) {
			id, err := res.ID()
			if err != nil {
				return nil, err
			}
			l.Sections = append(l.Sections, list.Section{ID: id, ListID: l.ID, Name: name, Items: []list.Item{}})
			return l, nil
		})
}

// DeleteSection удаляет секцию вместе с элементами.
func (b *Board) DeleteSection(ctx context.Context, sectionID uuid.UUID) Result {
	const action = "delete_section"

	if s, _ := b.Snapshot().Section(sectionID); s == nil {
		return b.fail(action, notFound("секция", sectionID))
	}

	return b.reconcile(ctx, action, sectionID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.DeleteSection(ctx, b.listID, sectionID)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			_, idx := l.Section(sectionID)
			if idx < 0 {
				return nil, notFound("секция", sectionID)
			}
			l.Sections = slices.Delete(l.Sections, idx, idx+1)
			return l, nil
		})
}

// ToggleFlag переключает флаг списка на противоположное значение.
func (b *Board) ToggleFlag(ctx context.Context, flag list.Flag) Result {
	const action = "toggle_flag"

	if !flag.Valid() {
		return b.fail(action, fmt.Errorf("неизвестный флаг %q", flag))
	}

	unlock := b.lock(b.listID)
	defer unlock()

	value := !flagValue(b.Snapshot(), flag)
	return b.apply(ctx, action,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.SetListFlag(ctx, b.listID, flag, value)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			switch flag {
			case list.FlagTimeTracking:
				l.HasTimeTracking = value
			case list.FlagDueDates:
				l.HasDueDates = value
			}
			return l, nil
		})
}

func flagValue(l *list.List, flag list.Flag) bool {
	switch flag {
	case list.FlagTimeTracking:
		return l.HasTimeTracking
	case list.FlagDueDates:
		return l.HasDueDates
	}
	return false
}

func (b *Board) AddMember(ctx context.Context, user list.User) Result {
	return b.reconcile(ctx, "add_member", b.listID,
		func(ctx context.Context) (client.Response, error) {
			return b.remote.AddMember(ctx, b.listID, user)
		},
		func(l *list.List, _ client.Response) (*list.List, error) {
			if _, ok := l.Member(user.ID); !ok {
				l.Members = append(l.Members, list.Member{User: user, ListID: l.ID})
			}
			return l, nil
		})
}

package service

import (
	"context"

	"listTracker/internal/models/list"

	"github.com/google/uuid"
)

type ListRepository interface {
	HealthCheck(context.Context) error

	CreateList(context.Context, *list.List) error
	GetList(context.Context, uuid.UUID) (*list.List, error)
	DeleteList(context.Context, uuid.UUID) error
	SetListFlag(context.Context, uuid.UUID, list.Flag, bool) error
	AddMember(context.Context, list.Member) error

	CreateSection(context.Context, *list.Section) error
	GetSection(context.Context, uuid.UUID) (*list.Section, error)
	DeleteSection(context.Context, uuid.UUID) error
	GetSectionIDs(ctx context.Context, page, limit int) ([]uuid.UUID, error)
	CompactSection(context.Context, uuid.UUID) (int, error)

	CreateItem(context.Context, *list.Item) error
	GetItem(context.Context, uuid.UUID) (*list.Item, error)
	UpdateItem(context.Context, *list.Item) error
	DeleteItem(context.Context, uuid.UUID) error
	ReindexItem(ctx context.Context, sectionID, itemID uuid.UUID, newIndex, oldIndex int) error
	ReopenItem(ctx context.Context, item *list.Item, oldIndex int) error

	CreateTag(context.Context, *list.Tag) error
	GetTag(context.Context, uuid.UUID) (*list.Tag, error)
	DeleteTag(context.Context, uuid.UUID) error
	LinkTag(ctx context.Context, itemID, tagID uuid.UUID) error
	UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) error

	AddAssignee(ctx context.Context, itemID, userID uuid.UUID) error
	RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error
}

type RepoType string

const DBType RepoType = "postgres"
const InMemoryType RepoType = "inmemory"

package handlers

import (
	"context"

	"listTracker/internal/models/list"
	"listTracker/internal/service"

	"github.com/google/uuid"
)

type Service interface {
	HealthCheck(context.Context) error

	CreateList(ctx context.Context, owner list.User, name string) (*list.List, error)
	GetList(context.Context, uuid.UUID) (*list.List, error)
	DeleteList(context.Context, uuid.UUID) error
	SetListFlag(context.Context, uuid.UUID, list.Flag, bool) error
	AddMember(ctx context.Context, listID uuid.UUID, user list.User) error

	CreateSection(ctx context.Context, listID uuid.UUID, name string) (*list.Section, error)
	DeleteSection(ctx context.Context, listID, sectionID uuid.UUID) error
	ReindexItem(ctx context.Context, listID, sectionID, itemID uuid.UUID, newIndex, oldIndex int) error

	CreateTag(ctx context.Context, listID uuid.UUID, name string, color list.Color) (*list.Tag, error)
	DeleteTag(ctx context.Context, listID, tagID uuid.UUID) error

	CreateItem(context.Context, service.CreateItemInput) (*list.Item, error)
	GetItem(context.Context, uuid.UUID) (*list.Item, error)
	UpdateItem(context.Context, uuid.UUID, ...list.ItemOption) (*list.Item, error)
	DeleteItem(context.Context, uuid.UUID) error
	LinkTag(ctx context.Context, itemID, tagID uuid.UUID) error
	UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) error
	AddAssignee(ctx context.Context, itemID, userID uuid.UUID) error
	RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error
}

var _ Service = (*service.ListService)(nil)

package dto

import (
	"time"

	"listTracker/internal/models/list"

	"github.com/google/uuid"
)

type CreateListRequest struct {
	Name string `json:"name"`
}

type SetFlagRequest struct {
	Flag  list.Flag `json:"flag"`
	Value bool      `json:"value"`
}

type AddMemberRequest struct {
	UserID   uuid.UUID  `json:"userId"`
	Username string     `json:"username"`
	Color    list.Color `json:"color"`
}

type CreateSectionRequest struct {
	Name string `json:"name"`
}

type ReindexRequest struct {
	ItemID   uuid.UUID `json:"itemId"`
	Index    *int      `json:"index"`
	OldIndex *int      `json:"oldIndex"`
}

type CreateTagRequest struct {
	Name  string     `json:"name"`
	Color list.Color `json:"color"`
}

type CreateItemRequest struct {
	SectionID uuid.UUID     `json:"sectionId"`
	Name      string        `json:"name"`
	Priority  list.Priority `json:"priority"`
	DueDate   *time.Time    `json:"dueDate,omitempty"`
	Duration  *int64        `json:"duration,omitempty"`
}

// UpdateItemRequest меняет только переданные поля. Clear* снимают срок
// и оценку времени.
type UpdateItemRequest struct {
	Status          *list.Status `json:"status,omitempty"`
	DateDue         *time.Time   `json:"dateDue,omitempty"`
	ExpectedMs      *int64       `json:"expectedMs,omitempty"`
	ClearDateDue    bool         `json:"clearDateDue,omitempty"`
	ClearExpectedMs bool         `json:"clearExpectedMs,omitempty"`
}

func (r UpdateItemRequest) Empty() bool {
	return r.Status == nil && r.DateDue == nil && r.ExpectedMs == nil && !r.ClearDateDue && !r.ClearExpectedMs
}

// Response общий конверт успешного ответа.
type Response struct {
	Message string `json:"message"`
	Content string `json:"content,omitempty"`
}

type ListResponse struct {
	Message string     `json:"message"`
	List    *list.List `json:"list"`
}

type ItemResponse struct {
	Message string     `json:"message"`
	Item    *list.Item `json:"item"`
}

// ErrorResponse конверт ошибки.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

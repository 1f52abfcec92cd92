package list

import (
	"time"

	"github.com/google/uuid"
)

type Status string
type Priority string
type Color string
type Flag string

const StatusPending Status = "Pending"
const StatusInProgress Status = "InProgress"
const StatusCompleted Status = "Completed"

const PriorityLow Priority = "Low"
const PriorityMedium Priority = "Medium"
const PriorityHigh Priority = "High"

const FlagTimeTracking Flag = "hasTimeTracking"
const FlagDueDates Flag = "hasDueDates"

const (
	ColorPink    Color = "Pink"
	ColorRed     Color = "Red"
	ColorOrange  Color = "Orange"
	ColorAmber   Color = "Amber"
	ColorYellow  Color = "Yellow"
	ColorLime    Color = "Lime"
	ColorGreen   Color = "Green"
	ColorEmerald Color = "Emerald"
	ColorCyan    Color = "Cyan"
	ColorBlue    Color = "Blue"
	ColorViolet  Color = "Violet"
)

var colors = []Color{
	ColorPink, ColorRed, ColorOrange, ColorAmber, ColorYellow, ColorLime,
	ColorGreen, ColorEmerald, ColorCyan, ColorBlue, ColorViolet,
}

type User struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	Color    Color     `json:"color,omitempty" db:"color"`
}

type Member struct {
	User   User      `json:"user"`
	ListID uuid.UUID `json:"list_id" db:"list_id"`
}

type Assignee struct {
	User   User      `json:"user"`
	ItemID uuid.UUID `json:"item_id" db:"item_id"`
}

type Tag struct {
	ID     uuid.UUID `json:"id" db:"id"`
	ListID uuid.UUID `json:"list_id" db:"list_id"`
	Name   string    `json:"name" db:"name"`
	Color  Color     `json:"color" db:"color"`
}

type Item struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	SectionID     uuid.UUID  `json:"section_id" db:"section_id"`
	Name          string     `json:"name" db:"name"`
	Status        Status     `json:"status" db:"status"`
	Priority      Priority   `json:"priority" db:"priority"`
	SectionIndex  int        `json:"section_index" db:"section_index"`
	ExpectedMs    *int64     `json:"expected_ms,omitempty" db:"expected_ms"`
	DateDue       *time.Time `json:"date_due,omitempty" db:"date_due"`
	DateStarted   *time.Time `json:"date_started,omitempty" db:"date_started"`
	DateCompleted *time.Time `json:"date_completed,omitempty" db:"date_completed"`
	DateCreated   time.Time  `json:"date_created" db:"date_created"`
	Tags          []Tag      `json:"tags"`
	Assignees     []Assignee `json:"assignees"`
}

type Section struct {
	ID     uuid.UUID `json:"id" db:"id"`
	ListID uuid.UUID `json:"list_id" db:"list_id"`
	Name   string    `json:"name" db:"name"`
	Items  []Item    `json:"items"`
}

type List struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	OwnerID         uuid.UUID `json:"owner_id" db:"owner_id"`
	HasTimeTracking bool      `json:"has_time_tracking" db:"has_time_tracking"`
	HasDueDates     bool      `json:"has_due_dates" db:"has_due_dates"`
	DateCreated     time.Time `json:"date_created" db:"date_created"`
	Sections        []Section `json:"sections"`
	Members         []Member  `json:"members"`
	Tags            []Tag     `json:"tags"`
}

// IsSaved сообщает, получил ли элемент id от сервиса.
func (i Item) IsSaved() bool {
	return i.ID != uuid.Nil
}

func (i Item) IsCompleted() bool {
	return i.Status == StatusCompleted
}

func (i Item) HasTag(tagID uuid.UUID) bool {
	for _, t := range i.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

func (i Item) HasAssignee(userID uuid.UUID) bool {
	for _, a := range i.Assignees {
		if a.User.ID == userID {
			return true
		}
	}
	return false
}

// Rank возвращает порядковый номер приоритета: Low < Medium < High.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	default:
		return -1
	}
}

func (p Priority) Valid() bool {
	return p.Rank() >= 0
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (c Color) Valid() bool {
	for _, known := range colors {
		if c == known {
			return true
		}
	}
	return false
}

func (f Flag) Valid() bool {
	return f == FlagTimeTracking || f == FlagDueDates
}

func (l *List) Section(id uuid.UUID) (*Section, int) {
	for i := range l.Sections {
		if l.Sections[i].ID == id {
			return &l.Sections[i], i
		}
	}
	return nil, -1
}

// FindItem ищет элемент во всех секциях списка.
func (l *List) FindItem(id uuid.UUID) (*Section, *Item) {
	for i := range l.Sections {
		section := &l.Sections[i]
		for j := range section.Items {
			if section.Items[j].ID == id {
				return section, &section.Items[j]
			}
		}
	}
	return nil, nil
}

func (l *List) Tag(id uuid.UUID) (Tag, bool) {
	for _, t := range l.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

func (l *List) Member(userID uuid.UUID) (Member, bool) {
	for _, m := range l.Members {
		if m.User.ID == userID {
			return m, true
		}
	}
	return Member{}, false
}

func (s *Section) Item(id uuid.UUID) (*Item, int) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i], i
		}
	}
	return nil, -1
}

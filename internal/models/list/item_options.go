package list

import (
	"time"
)

type ItemOption func(*Item)

func WithName(name string) ItemOption {
	if name == "" {
		return nil
	}
	return func(item *Item) {
		item.Name = name
	}
}

func WithPriority(priority Priority) ItemOption {
	if !priority.Valid() {
		return nil
	}
	return func(item *Item) {
		item.Priority = priority
	}
}

func WithDueDate(due *time.Time) ItemOption {
	if due == nil || due.IsZero() {
		return nil
	}
	return func(item *Item) {
		item.DateDue = cloneTime(due)
	}
}

func WithExpectedMs(ms *int64) ItemOption {
	if ms == nil || *ms < 0 {
		return nil
	}
	return func(item *Item) {
		v := *ms
		item.ExpectedMs = &v
	}
}

// WithStatus переводит элемент в новый статус и проставляет даты начала и завершения.
// Возврат из Completed сбрасывает дату завершения, повторное завершение её не меняет.
func WithStatus(status Status, now time.Time) ItemOption {
	if !status.Valid() {
		return nil
	}
	return func(item *Item) {
		switch status {
		case StatusInProgress:
			if item.DateStarted == nil {
				item.DateStarted = cloneTime(&now)
			}
			item.DateCompleted = nil
		case StatusCompleted:
			if item.DateStarted == nil {
				item.DateStarted = cloneTime(&now)
			}
			if item.Status != StatusCompleted || item.DateCompleted == nil {
				item.DateCompleted = cloneTime(&now)
			}
		case StatusPending:
			item.DateCompleted = nil
		}
		item.Status = status
	}
}

func WithoutDueDate() ItemOption {
	return func(item *Item) {
		item.DateDue = nil
	}
}

func WithoutExpectedMs() ItemOption {
	return func(item *Item) {
		item.ExpectedMs = nil
	}
}

func (i *Item) Apply(options ...ItemOption) {
	for _, opt := range options {
		if opt != nil {
			opt(i)
		}
	}
}

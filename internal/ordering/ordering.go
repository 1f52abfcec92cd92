// Package ordering задаёт порядок отображения элементов секции и
// перенумерацию sectionIndex при перетаскивании.
package ordering

import (
	"cmp"
	"slices"

	"listTracker/internal/models/list"
)

// Compare сравнивает два элемента одной секции для отображения.
//
// Порядок правил:
//  1. оба завершены с датой: позже завершённый идёт первым;
//  2. незавершённые идут перед завершёнными;
//  3. по сроку по возрастанию, элементы без срока после элементов со сроком;
//  4. по приоритету Low < Medium < High, меньший первым;
//  5. иначе 0, порядок сохраняет Sort.
func Compare(a, b list.Item) int {
	if a.DateCompleted != nil && b.DateCompleted != nil {
		return b.DateCompleted.Compare(*a.DateCompleted)
	}

	aDone, bDone := a.IsCompleted(), b.IsCompleted()
	if aDone != bDone {
		if aDone {
			return 1
		}
		return -1
	}

	switch {
	case a.DateDue == nil && b.DateDue != nil:
		return 1
	case a.DateDue != nil && b.DateDue == nil:
		return -1
	case a.DateDue != nil && b.DateDue != nil:
		if c := a.DateDue.Compare(*b.DateDue); c != 0 {
			return c
		}
	}

	return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
}

// Sort возвращает копию элементов в порядке отображения. Сначала элементы
// упорядочиваются по sectionIndex, затем стабильно по Compare, поэтому
// равные по Compare элементы сохраняют порядок перетаскивания.
func Sort(items []list.Item) []list.Item {
	res := list.CloneItems(items)
	slices.SortStableFunc(res, byIndex)
	slices.SortStableFunc(res, Compare)
	return res
}

// DragOrder возвращает копию элементов в порядке перетаскивания:
// незавершённые по sectionIndex, за ними завершённые, недавно
// завершённые первыми. Среди незавершённых соседние sectionIndex
// возрастают, на этом порядке работает PlanMove.
func DragOrder(items []list.Item) []list.Item {
	res := list.CloneItems(items)
	slices.SortStableFunc(res, byIndex)
	slices.SortStableFunc(res, byCompleted)
	return res
}

// Pending возвращает число незавершённых элементов, то есть длину
// перетаскиваемой части DragOrder.
func Pending(items []list.Item) int {
	n := 0
	for _, it := range items {
		if !it.IsCompleted() {
			n++
		}
	}
	return n
}

// ByIndex возвращает копию элементов, упорядоченную только по sectionIndex.
func ByIndex(items []list.Item) []list.Item {
	res := list.CloneItems(items)
	slices.SortStableFunc(res, byIndex)
	return res
}

func byIndex(a, b list.Item) int {
	return cmp.Compare(a.SectionIndex, b.SectionIndex)
}

func byCompleted(a, b list.Item) int {
	aDone, bDone := a.IsCompleted(), b.IsCompleted()
	switch {
	case aDone != bDone:
		if aDone {
			return 1
		}
		return -1
	case aDone && a.DateCompleted != nil && b.DateCompleted != nil:
		return b.DateCompleted.Compare(*a.DateCompleted)
	}
	return 0
}

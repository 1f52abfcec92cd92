package ordering

import (
	"errors"
	"fmt"
	"slices"

	"listTracker/internal/models/list"

	"github.com/google/uuid"
)

var (
	ErrIndexInvariant   = errors.New("нарушена плотность sectionIndex")
	ErrItemNotInSection = errors.New("элемент не найден в секции")
	ErrVisualIndex      = errors.New("визуальный индекс вне диапазона")
)

// Move описывает перестановку элемента внутри секции.
type Move struct {
	ItemID   uuid.UUID
	OldIndex int
	NewIndex int
}

func (m Move) Noop() bool {
	return m.OldIndex == m.NewIndex
}

// PlanMove вычисляет новый sectionIndex по визуальному массиву после
// перетаскивания. visual уже содержит элемент на новой позиции,
// lastVisualIndex - его позиция до перетаскивания.
func PlanMove(visual []list.Item, itemID uuid.UUID, lastVisualIndex int) (Move, error) {
	if lastVisualIndex < 0 || lastVisualIndex >= len(visual) {
		return Move{}, fmt.Errorf("%w: %d из %d", ErrVisualIndex, lastVisualIndex, len(visual))
	}

	pos := slices.IndexFunc(visual, func(it list.Item) bool { return it.ID == itemID })
	if pos < 0 {
		return Move{}, fmt.Errorf("%w: %s", ErrItemNotInSection, itemID)
	}

	move := Move{
		ItemID:   itemID,
		OldIndex: visual[pos].SectionIndex,
		NewIndex: visual[pos].SectionIndex,
	}

	switch {
	case pos > lastVisualIndex:
		move.NewIndex = visual[pos-1].SectionIndex
	case pos < lastVisualIndex:
		move.NewIndex = visual[pos+1].SectionIndex
	}
	return move, nil
}

// Renumber применяет подтверждённую перестановку к копии элементов секции.
// Элементы с индексом в [min, max] сдвигаются на одну позицию в сторону
// освободившегося места, перемещённый элемент получает ровно newIndex.
// Результат проверяется на плотность; при нарушении возвращается ошибка,
// а исходный срез не меняется.
func Renumber(items []list.Item, itemID uuid.UUID, oldIndex, newIndex int) ([]list.Item, error) {
	pos := slices.IndexFunc(items, func(it list.Item) bool { return it.ID == itemID })
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotInSection, itemID)
	}
	if items[pos].SectionIndex != oldIndex {
		return nil, fmt.Errorf("%w: элемент %s на индексе %d, ожидался %d",
			ErrIndexInvariant, itemID, items[pos].SectionIndex, oldIndex)
	}
	if newIndex < 0 || newIndex >= len(items) {
		return nil, fmt.Errorf("%w: новый индекс %d при %d элементах", ErrIndexInvariant, newIndex, len(items))
	}

	res := list.CloneItems(items)
	if oldIndex == newIndex {
		return res, nil
	}

	lo, hi := min(oldIndex, newIndex), max(oldIndex, newIndex)
	shift := -1
	if oldIndex > newIndex {
		shift = 1
	}

	for i := range res {
		if res[i].SectionIndex >= lo && res[i].SectionIndex <= hi {
			res[i].SectionIndex += shift
		}
	}
	res[pos].SectionIndex = newIndex

	if err := CheckDense(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Remove убирает элемент из секции и сдвигает последующие индексы вниз.
func Remove(items []list.Item, itemID uuid.UUID) ([]list.Item, error) {
	pos := slices.IndexFunc(items, func(it list.Item) bool { return it.ID == itemID })
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotInSection, itemID)
	}

	removed := items[pos].SectionIndex
	res := make([]list.Item, 0, len(items)-1)
	for i, it := range items {
		if i == pos {
			continue
		}
		cp := it.Clone()
		if cp.SectionIndex > removed {
			cp.SectionIndex--
		}
		res = append(res, cp)
	}

	if err := CheckDense(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Append добавляет новый элемент в конец секции. Индекс элемента должен
// совпадать с текущей длиной секции.
func Append(items []list.Item, item list.Item) ([]list.Item, error) {
	if item.SectionIndex != len(items) {
		return nil, fmt.Errorf("%w: новый элемент на индексе %d при %d элементах",
			ErrIndexInvariant, item.SectionIndex, len(items))
	}
	res := append(list.CloneItems(items), item.Clone())
	if err := CheckDense(res); err != nil {
		return nil, err
	}
	return res, nil
}

// CheckDense проверяет, что индексы образуют ровно {0, 1, ..., n-1}.
func CheckDense(items []list.Item) error {
	seen := make([]bool, len(items))
	for _, it := range items {
		idx := it.SectionIndex
		if idx < 0 || idx >= len(items) {
			return fmt.Errorf("%w: индекс %d вне [0, %d)", ErrIndexInvariant, idx, len(items))
		}
		if seen[idx] {
			return fmt.Errorf("%w: индекс %d занят дважды", ErrIndexInvariant, idx)
		}
		seen[idx] = true
	}
	return nil
}

// Compact переназначает индексы подряд от нуля, сохраняя текущий порядок.
// Элементы с одинаковым индексом упорядочиваются по дате создания.
// Возвращает копию и число изменённых элементов.
func Compact(items []list.Item) ([]list.Item, int) {
	res := list.CloneItems(items)
	slices.SortStableFunc(res, func(a, b list.Item) int {
		if c := byIndex(a, b); c != 0 {
			return c
		}
		return a.DateCreated.Compare(b.DateCreated)
	})

	changed := 0
	for i := range res {
		if res[i].SectionIndex != i {
			res[i].SectionIndex = i
			changed++
		}
	}
	return res, changed
}

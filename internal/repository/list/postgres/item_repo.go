package postgres

import (
	"context"
	"fmt"
	"time"

	"listTracker/internal/logger"
	"listTracker/internal/models/list"
	repo "listTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// CreateItem вставляет элемент в конец секции. Индекс назначается здесь,
// под блокировкой секции.
func (s *Storage) CreateItem(ctx context.Context, item *list.Item) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockSection(ctx, tx, item.SectionID); err != nil {
		return err
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE section_id = $1`, item.SectionID).Scan(&count); err != nil {
		return fmt.Errorf("подсчёт элементов: %w", err)
	}
	item.SectionIndex = count

	query := `INSERT INTO items
				(id, section_id, name, status, priority, section_index, expected_ms, date_due, date_started, date_completed, date_created)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = tx.Exec(ctx, query,
		item.ID,
		item.SectionID,
		item.Name,
		item.Status,
		item.Priority,
		item.SectionIndex,
		item.ExpectedMs,
		item.DateDue,
		item.DateStarted,
		item.DateCompleted,
		item.DateCreated,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить элемент", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление элемента: %w", translate(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	warnIfSlow(start, 50*time.Millisecond, "create_item")
	return nil
}

func (s *Storage) GetItem(ctx context.Context, id uuid.UUID) (*list.Item, error) {
	items, err := s.queryItems(ctx, `i.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("получение элемента: %w", translate(pgx.ErrNoRows))
	}
	return &items[0], nil
}

// UpdateItem сохраняет изменяемые поля элемента. Индекс меняет только ReindexItem.
func (s *Storage) UpdateItem(ctx context.Context, item *list.Item) error {
	start := time.Now()

	if err := updateFields(ctx, s.pool, item); err != nil {
		logger.Error("Repository: Не удалось обновить элемент", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление элемента: %w", err)
	}

	warnIfSlow(start, 50*time.Millisecond, "update_item")
	return nil
}

// ReopenItem одной транзакцией переносит элемент с oldIndex в конец секции
// и сохраняет его поля. item.SectionIndex получает итоговый индекс.
func (s *Storage) ReopenItem(ctx context.Context, item *list.Item, oldIndex int) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var sectionID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT section_id FROM items WHERE id = $1`, item.ID).Scan(&sectionID); err != nil {
		return fmt.Errorf("получение элемента: %w", translate(err))
	}
	if err := lockSection(ctx, tx, sectionID); err != nil {
		return err
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE section_id = $1`, sectionID).Scan(&count); err != nil {
		return fmt.Errorf("подсчёт элементов: %w", err)
	}
	last := count - 1
	if err := moveItem(ctx, tx, sectionID, item.ID, last, oldIndex); err != nil {
		return err
	}
	if err := updateFields(ctx, tx, item); err != nil {
		return fmt.Errorf("обновление элемента: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать возобновление", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("фиксация транзакции: %w", translate(err))
	}
	item.SectionID = sectionID
	item.SectionIndex = last
	warnIfSlow(start, 100*time.Millisecond, "reopen_item")
	return nil
}

// DeleteItem удаляет элемент и сдвигает последующие индексы на один вниз.
func (s *Storage) DeleteItem(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var sectionID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT section_id FROM items WHERE id = $1`, id).Scan(&sectionID); err != nil {
		return fmt.Errorf("получение элемента: %w", translate(err))
	}
	if err := lockSection(ctx, tx, sectionID); err != nil {
		return err
	}

	var index int
	err = tx.QueryRow(ctx, `DELETE FROM items WHERE id = $1 RETURNING section_index`, id).Scan(&index)
	if err != nil {
		return fmt.Errorf("удаление элемента: %w", translate(err))
	}

	_, err = tx.Exec(ctx, `UPDATE items SET section_index = section_index - 1
				WHERE section_id = $1 AND section_index > $2`, sectionID, index)
	if err != nil {
		return fmt.Errorf("сдвиг индексов: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	warnIfSlow(start, 100*time.Millisecond, "delete_item")
	return nil
}

// ReindexItem переносит элемент с oldIndex на newIndex одной транзакцией.
// Ограничение уникальности индекса отложено до фиксации, поэтому
// промежуточные дубликаты допустимы.
func (s *Storage) ReindexItem(ctx context.Context, sectionID, itemID uuid.UUID, newIndex, oldIndex int) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockSection(ctx, tx, sectionID); err != nil {
		return err
	}
	if err := moveItem(ctx, tx, sectionID, itemID, newIndex, oldIndex); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать перестановку", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("фиксация транзакции: %w", translate(err))
	}
	warnIfSlow(start, 100*time.Millisecond, "reindex_item")
	return nil
}

func (s *Storage) LinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO item_tags (item_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, itemID, tagID)
	if err != nil {
		return fmt.Errorf("привязка тега: %w", translate(err))
	}
	return nil
}

func (s *Storage) UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) error {
	if err := rowsAffected(s.pool.Exec(ctx, `DELETE FROM item_tags WHERE item_id = $1 AND tag_id = $2`, itemID, tagID)); err != nil {
		return fmt.Errorf("отвязка тега: %w", err)
	}
	return nil
}

func (s *Storage) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO item_assignees (item_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, itemID, userID)
	if err != nil {
		return fmt.Errorf("назначение исполнителя: %w", translate(err))
	}
	return nil
}

func (s *Storage) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) error {
	if err := rowsAffected(s.pool.Exec(ctx, `DELETE FROM item_assignees WHERE item_id = $1 AND user_id = $2`, itemID, userID)); err != nil {
		return fmt.Errorf("снятие исполнителя: %w", err)
	}
	return nil
}

// queryItems читает элементы вместе с тегами и исполнителями.
// Условие where может ссылаться на items как i и на sections как s.
func (s *Storage) queryItems(ctx context.Context, where string, arg any) ([]list.Item, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, `SELECT i.id, i.section_id, i.name, i.status, i.priority, i.section_index,
					i.expected_ms, i.date_due, i.date_started, i.date_completed, i.date_created
				FROM items i
				JOIN sections s ON s.id = i.section_id
				WHERE `+where+`
				ORDER BY i.section_id, i.section_index`, arg)
	if err != nil {
		logger.Error("Repository: Не удалось получить элементы", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение элементов: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (list.Item, error) {
		var it list.Item
		err := row.Scan(
			&it.ID,
			&it.SectionID,
			&it.Name,
			&it.Status,
			&it.Priority,
			&it.SectionIndex,
			&it.ExpectedMs,
			&it.DateDue,
			&it.DateStarted,
			&it.DateCompleted,
			&it.DateCreated,
		)
		it.Tags = []list.Tag{}
		it.Assignees = []list.Assignee{}
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("чтение элементов: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]uuid.UUID, len(items))
	pos := make(map[uuid.UUID]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
		pos[it.ID] = i
	}

	tagRows, err := s.pool.Query(ctx, `SELECT it.item_id, t.id, t.list_id, t.name, t.color
				FROM item_tags it
				JOIN tags t ON t.id = it.tag_id
				WHERE it.item_id = ANY($1)
				ORDER BY t.name`, ids)
	if err != nil {
		return nil, fmt.Errorf("получение тегов элементов: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var itemID uuid.UUID
		var t list.Tag
		if err := tagRows.Scan(&itemID, &t.ID, &t.ListID, &t.Name, &t.Color); err != nil {
			logger.Warn("Repository: Ошибка сканирования тега", zap.Error(err))
			continue
		}
		items[pos[itemID]].Tags = append(items[pos[itemID]].Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по тегам: %w", err)
	}

	userRows, err := s.pool.Query(ctx, `SELECT a.item_id, u.id, u.username, u.color
				FROM item_assignees a
				JOIN users u ON u.id = a.user_id
				WHERE a.item_id = ANY($1)
				ORDER BY u.username`, ids)
	if err != nil {
		return nil, fmt.Errorf("получение исполнителей: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var a list.Assignee
		if err := userRows.Scan(&a.ItemID, &a.User.ID, &a.User.Username, &a.User.Color); err != nil {
			logger.Warn("Repository: Ошибка сканирования исполнителя", zap.Error(err))
			continue
		}
		items[pos[a.ItemID]].Assignees = append(items[pos[a.ItemID]].Assignees, a)
	}
	if err := userRows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по исполнителям: %w", err)
	}

	warnIfSlow(start, 100*time.Millisecond, "query_items")
	return items, nil
}

// moveItem сдвигает индексы секции внутри транзакции. Секция уже заблокирована.
func moveItem(ctx context.Context, tx pgx.Tx, sectionID, itemID uuid.UUID, newIndex, oldIndex int) error {
	var current, count int
	err := tx.QueryRow(ctx, `SELECT section_index FROM items WHERE id = $1 AND section_id = $2`, itemID, sectionID).Scan(&current)
	if err != nil {
		return fmt.Errorf("получение элемента: %w", translate(err))
	}
	if current != oldIndex {
		logger.Warn("Repository: Индекс элемента изменился",
			zap.String("item_id", itemID.String()),
			zap.Int("expected", oldIndex),
			zap.Int("actual", current))
		return repo.ErrIndexConflict
	}
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE section_id = $1`, sectionID).Scan(&count); err != nil {
		return fmt.Errorf("подсчёт элементов: %w", err)
	}
	if newIndex < 0 || newIndex >= count {
		return fmt.Errorf("%w: индекс %d вне диапазона [0, %d)", repo.ErrIndexConflict, newIndex, count)
	}
	if newIndex == oldIndex {
		return nil
	}

	if oldIndex > newIndex {
		_, err = tx.Exec(ctx, `UPDATE items SET section_index = section_index + 1
				WHERE section_id = $1 AND section_index >= $2 AND section_index < $3`,
			sectionID, newIndex, oldIndex)
	} else {
		_, err = tx.Exec(ctx, `UPDATE items SET section_index = section_index - 1
				WHERE section_id = $1 AND section_index > $2 AND section_index <= $3`,
			sectionID, oldIndex, newIndex)
	}
	if err != nil {
		return fmt.Errorf("сдвиг индексов: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE items SET section_index = $1 WHERE id = $2`, newIndex, itemID); err != nil {
		return fmt.Errorf("установка индекса: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateFields(ctx context.Context, db execer, item *list.Item) error {
	query := `UPDATE items
				SET name = $1, status = $2, priority = $3, expected_ms = $4,
					date_due = $5, date_started = $6, date_completed = $7
				WHERE id = $8`

	return rowsAffected(db.Exec(ctx, query,
		item.Name,
		item.Status,
		item.Priority,
		item.ExpectedMs,
		item.DateDue,
		item.DateStarted,
		item.DateCompleted,
		item.ID,
	))
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"listTracker/internal/logger"
	"listTracker/internal/models/list"
	"listTracker/internal/ordering"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Storage) CreateList(ctx context.Context, l *list.List) error {
	start := time.Now()

	query := `INSERT INTO lists
				(id, name, owner_id, has_time_tracking, has_due_dates, date_created)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING date_created`

	dateCreated := l.DateCreated
	if dateCreated.IsZero() {
		dateCreated = time.Now()
	}

	err := s.pool.QueryRow(ctx, query,
		l.ID,
		l.Name,
		l.OwnerID,
		l.HasTimeTracking,
		l.HasDueDates,
		dateCreated,
	).Scan(&l.DateCreated)
	if err != nil {
		logger.Error("Repository: Не удалось добавить список", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление списка: %w", translate(err))
	}

	warnIfSlow(start, 50*time.Millisecond, "create_list")
	return nil
}

// GetList собирает список целиком: секции, элементы с тегами и исполнителями, участников и теги.
func (s *Storage) GetList(ctx context.Context, id uuid.UUID) (*list.List, error) {
	start := time.Now()

	query := `SELECT id, name, owner_id, has_time_tracking, has_due_dates, date_created
				FROM lists
				WHERE id = $1`

	l := &list.List{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.Name,
		&l.OwnerID,
		&l.HasTimeTracking,
		&l.HasDueDates,
		&l.DateCreated,
	)
	if err != nil {
		return nil, fmt.Errorf("получение списка: %w", translate(err))
	}

	sections, err := s.querySections(ctx, `s.list_id = $1`, id)
	if err != nil {
		return nil, err
	}
	items, err := s.queryItems(ctx, `s.list_id = $1`, id)
	if err != nil {
		return nil, err
	}
	bySection := make(map[uuid.UUID][]list.Item)
	for _, it := range items {
		bySection[it.SectionID] = append(bySection[it.SectionID], it)
	}
	for i := range sections {
		sections[i].Items = bySection[sections[i].ID]
		if sections[i].Items == nil {
			sections[i].Items = []list.Item{}
		}
	}
	l.Sections = sections

	if l.Members, err = s.queryMembers(ctx, id); err != nil {
		return nil, err
	}
	if l.Tags, err = s.queryTags(ctx, `list_id = $1`, id); err != nil {
		return nil, err
	}

	warnIfSlow(start, 200*time.Millisecond, "get_list")
	return l, nil
}

func (s *Storage) DeleteList(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow(start, 100*time.Millisecond, "delete_list")

	if err := rowsAffected(s.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("удаление списка: %w", err)
	}
	return nil
}

func (s *Storage) SetListFlag(ctx context.Context, id uuid.UUID, flag list.Flag, value bool) error {
	var query string
	switch flag {
	case list.FlagTimeTracking:
		query = `UPDATE lists SET has_time_tracking = $1 WHERE id = $2`
	case list.FlagDueDates:
		query = `UPDATE lists SET has_due_dates = $1 WHERE id = $2`
	default:
		return fmt.Errorf("неизвестный флаг %q", flag)
	}

	if err := rowsAffected(s.pool.Exec(ctx, query, value, id)); err != nil {
		return fmt.Errorf("обновление флага: %w", err)
	}
	return nil
}

func (s *Storage) AddMember(ctx context.Context, m list.Member) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO users (id, username, color)
				VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, color = EXCLUDED.color`,
		m.User.ID, m.User.Username, m.User.Color)
	if err != nil {
		return fmt.Errorf("сохранение пользователя: %w", translate(err))
	}

	_, err = tx.Exec(ctx, `INSERT INTO list_members (list_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, m.ListID, m.User.ID)
	if err != nil {
		return fmt.Errorf("добавление участника: %w", translate(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	warnIfSlow(start, 100*time.Millisecond, "add_member")
	return nil
}

func (s *Storage) CreateSection(ctx context.Context, section *list.Section) error {
	start := time.Now()

	_, err := s.pool.Exec(ctx, `INSERT INTO sections (id, list_id, name) VALUES ($1, $2, $3)`,
		section.ID, section.ListID, section.Name)
	if err != nil {
		logger.Error("Repository: Не удалось добавить секцию", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление секции: %w", translate(err))
	}

	warnIfSlow(start, 50*time.Millisecond, "create_section")
	return nil
}

func (s *Storage) GetSection(ctx context.Context, id uuid.UUID) (*list.Section, error) {
	sections, err := s.querySections(ctx, `s.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("получение секции: %w", translate(pgx.ErrNoRows))
	}

	section := sections[0]
	if section.Items, err = s.queryItems(ctx, `i.section_id = $1`, id); err != nil {
		return nil, err
	}
	if section.Items == nil {
		section.Items = []list.Item{}
	}
	return &section, nil
}

func (s *Storage) DeleteSection(ctx context.Context, id uuid.UUID) error {
	if err := rowsAffected(s.pool.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("удаление секции: %w", err)
	}
	return nil
}

// получение id секций постранично
func (s *Storage) GetSectionIDs(ctx context.Context, page, limit int) ([]uuid.UUID, error) {
	start := time.Now()
	offset := (page - 1) * limit

	rows, err := s.pool.Query(ctx, `SELECT id FROM sections
				ORDER BY date_created, id
				LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить секции", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение секций: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			logger.Warn("Repository: Ошибка сканирования секции", zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return ids, nil
}

// CompactSection переназначает индексы секции подряд от нуля.
func (s *Storage) CompactSection(ctx context.Context, id uuid.UUID) (int, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockSection(ctx, tx, id); err != nil {
		return 0, err
	}

	rows, err := tx.Query(ctx, `SELECT id, section_index, date_created
				FROM items
				WHERE section_id = $1
				ORDER BY section_index, date_created`, id)
	if err != nil {
		return 0, fmt.Errorf("получение индексов: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (list.Item, error) {
		var it list.Item
		err := row.Scan(&it.ID, &it.SectionIndex, &it.DateCreated)
		return it, err
	})
	if err != nil {
		return 0, fmt.Errorf("чтение индексов: %w", err)
	}

	compacted, changed := ordering.Compact(items)
	if changed == 0 {
		return 0, nil
	}

	before := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		before[it.ID] = it.SectionIndex
	}
	for _, it := range compacted {
		if before[it.ID] == it.SectionIndex {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE items SET section_index = $1 WHERE id = $2`, it.SectionIndex, it.ID); err != nil {
			return 0, fmt.Errorf("обновление индекса: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("фиксация транзакции: %w", err)
	}
	warnIfSlow(start, 100*time.Millisecond, "compact_section")
	return changed, nil
}

func (s *Storage) CreateTag(ctx context.Context, tag *list.Tag) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO tags (id, list_id, name, color) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.ListID, tag.Name, tag.Color)
	if err != nil {
		logger.Error("Repository: Не удалось добавить тег", err)
		return fmt.Errorf("добавление тега: %w", translate(err))
	}
	return nil
}

func (s *Storage) GetTag(ctx context.Context, id uuid.UUID) (*list.Tag, error) {
	tags, err := s.queryTags(ctx, `id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("получение тега: %w", translate(pgx.ErrNoRows))
	}
	return &tags[0], nil
}

func (s *Storage) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if err := rowsAffected(s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("удаление тега: %w", err)
	}
	return nil
}

func (s *Storage) querySections(ctx context.Context, where string, arg any) ([]list.Section, error) {
	rows, err := s.pool.Query(ctx, `SELECT s.id, s.list_id, s.name
				FROM sections s
				WHERE `+where+`
				ORDER BY s.date_created, s.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("получение секций: %w", err)
	}
	sections, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (list.Section, error) {
		var section list.Section
		err := row.Scan(&section.ID, &section.ListID, &section.Name)
		return section, err
	})
	if err != nil {
		return nil, fmt.Errorf("чтение секций: %w", err)
	}
	return sections, nil
}

func (s *Storage) queryMembers(ctx context.Context, listID uuid.UUID) ([]list.Member, error) {
	rows, err := s.pool.Query(ctx, `SELECT u.id, u.username, u.color
				FROM list_members m
				JOIN users u ON u.id = m.user_id
				WHERE m.list_id = $1
				ORDER BY u.username`, listID)
	if err != nil {
		return nil, fmt.Errorf("получение участников: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (list.Member, error) {
		m := list.Member{ListID: listID}
		err := row.Scan(&m.User.ID, &m.User.Username, &m.User.Color)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("чтение участников: %w", err)
	}
	return members, nil
}

func (s *Storage) queryTags(ctx context.Context, where string, arg any) ([]list.Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, list_id, name, color
				FROM tags
				WHERE `+where+`
				ORDER BY name`, arg)
	if err != nil {
		return nil, fmt.Errorf("получение тегов: %w", err)
	}
	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (list.Tag, error) {
		var t list.Tag
		err := row.Scan(&t.ID, &t.ListID, &t.Name, &t.Color)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("чтение тегов: %w", err)
	}
	return tags, nil
}

// lockSection блокирует строку секции до конца транзакции, чтобы изменения
// индексов в одной секции шли последовательно.
func lockSection(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM sections WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return fmt.Errorf("блокировка секции: %w", translate(err))
	}
	return nil
}

// Package board держит локальный снимок списка и применяет к нему
// изменения только после подтверждения сервисом.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"listTracker/internal/client"
	"listTracker/internal/handlers/dto"
	"listTracker/internal/models/list"
	"listTracker/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrClosed   = errors.New("сессия списка закрыта")
	ErrNotFound = errors.New("не найдено в списке")
)

// Remote операции сервиса списков, которыми пользуется Board.
type Remote interface {
	GetList(ctx context.Context, id uuid.UUID) (*list.List, error)
	SetListFlag(ctx context.Context, id uuid.UUID, flag list.Flag, value bool) (client.Response, error)
	AddMember(ctx context.Context, listID uuid.UUID, user list.User) (client.Response, error)
	CreateSection(ctx context.Context, listID uuid.UUID, name string) (client.Response, error)
	DeleteSection(ctx context.Context, listID, sectionID uuid.UUID) (client.Response, error)
	ReindexItem(ctx context.Context, listID, sectionID, itemID uuid.UUID, newIndex, oldIndex int) (client.Response, error)
	CreateTag(ctx context.Context, listID uuid.UUID, name string, color list.Color) (client.Response, error)
	DeleteTag(ctx context.Context, listID, tagID uuid.UUID) (client.Response, error)
	CreateItem(ctx context.Context, req dto.CreateItemRequest) (client.Response, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (client.Response, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (client.Response, error)
	LinkTag(ctx context.Context, itemID, tagID uuid.UUID) (client.Response, error)
	UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) (client.Response, error)
	AddAssignee(ctx context.Context, itemID, userID uuid.UUID) (client.Response, error)
	RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) (client.Response, error)
}

var _ Remote = (*client.Client)(nil)

// Result итог действия: новый снимок и сообщение сервиса либо ошибка.
// При ошибке List содержит неизменённый снимок.
type Result struct {
	List    *list.List
	Message string
	Err     error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Reducer применяет подтверждённое изменение к копии текущего снимка.
type Reducer func(cur *list.List, res client.Response) (*list.List, error)

type Board struct {
	remote   Remote
	listID   uuid.UUID
	notifier notify.Publisher
	log      *zap.Logger
	now      func() time.Time

	mu    sync.RWMutex
	state *list.List

	lanesMu sync.Mutex
	lanes   map[uuid.UUID]*sync.Mutex

	closed atomic.Bool
}

type Option func(*Board)

func WithNotifier(p notify.Publisher) Option {
	return func(b *Board) {
		if p != nil {
			b.notifier = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// New открывает сессию над уже загруженным списком.
func New(remote Remote, initial *list.List, opts ...Option) *Board {
	b := &Board{
		remote:   remote,
		listID:   initial.ID,
		notifier: notify.Discard{},
		log:      zap.NewNop(),
		now:      time.Now,
		state:    initial.Clone(),
		lanes:    make(map[uuid.UUID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open загружает список с сервиса и открывает над ним сессию.
func Open(ctx context.Context, remote Remote, listID uuid.UUID, opts ...Option) (*Board, error) {
	l, err := remote.GetList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("загрузка списка %s: %w", listID, err)
	}
	return New(remote, l, opts...), nil
}

func (b *Board) ListID() uuid.UUID {
	return b.listID
}

// Snapshot возвращает копию текущего состояния.
func (b *Board) Snapshot() *list.List {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Clone()
}

// Close завершает сессию. Ответы, пришедшие позже, не применяются.
func (b *Board) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.log.Debug("Board: Сессия закрыта", zap.String("list_id", b.listID.String()))
}

// Refresh заменяет снимок версией с сервиса.
func (b *Board) Refresh(ctx context.Context) Result {
	const action = "refresh"
	if b.closed.Load() {
		return Result{Err: ErrClosed}
	}

	l, err := b.remote.GetList(ctx, b.listID)
	if b.closed.Load() {
		return Result{Err: ErrClosed}
	}
	if err != nil {
		return b.fail(action, err)
	}

	b.mu.Lock()
	b.state = l.Clone()
	b.mu.Unlock()

	b.log.Debug("Board: Снимок обновлён с сервиса",
		zap.String("list_id", b.listID.String()),
		zap.Int("sections", len(l.Sections)))
	return Result{List: l}
}

// lock захватывает очередь действий по ключу секции или списка.
// Запросы в одной очереди уходят и применяются в порядке вызова.
func (b *Board) lock(key uuid.UUID) func() {
	b.lanesMu.Lock()
	lane, ok := b.lanes[key]
	if !ok {
		lane = &sync.Mutex{}
		b.lanes[key] = lane
	}
	b.lanesMu.Unlock()

	lane.Lock()
	return lane.Unlock
}

// reconcile выполняет действие в очереди lane: запрос к сервису, затем
// reducer над текущим снимком. Ошибка публикуется одним уведомлением.
func (b *Board) reconcile(ctx context.Context, action string, lane uuid.UUID,
	call func(ctx context.Context) (client.Response, error), reduce Reducer) Result {
	unlock := b.lock(lane)
	defer unlock()
	return b.apply(ctx, action, call, reduce)
}

// apply вызывается с захваченной очередью.
func (b *Board) apply(ctx context.Context, action string,
	call func(ctx context.Context) (client.Response, error), reduce Reducer) Result {
	if b.closed.Load() {
		return Result{Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return b.fail(action, err)
	}

	start := time.Now()
	res, err := call(ctx)
	if b.closed.Load() {
		b.log.Debug("Board: Ответ после закрытия отброшен", zap.String("action", action))
		return Result{Err: ErrClosed}
	}
	if err != nil {
		return b.fail(action, err)
	}

	b.mu.Lock()
	next, err := reduce(b.state.Clone(), res)
	if err != nil {
		b.mu.Unlock()
		b.log.Error("Board: Локальное состояние не обновлено",
			zap.String("action", action),
			zap.String("list_id", b.listID.String()),
			zap.Error(err))
		return b.fail(action, fmt.Errorf("локальное обновление: %w", err))
	}
	b.state = next
	snapshot := next.Clone()
	b.mu.Unlock()

	b.log.Debug("Board: Действие подтверждено",
		zap.String("action", action),
		zap.Duration("ms", time.Since(start)))
	b.notifier.Publish(notify.Success(action, res.Message))
	return Result{List: snapshot, Message: res.Message}
}

func (b *Board) fail(action string, err error) Result {
	b.log.Warn("Board: Действие не выполнено",
		zap.String("action", action),
		zap.String("list_id", b.listID.String()),
		zap.Error(err))
	b.notifier.Publish(notify.Failure(action, err))
	return Result{List: b.Snapshot(), Err: err}
}

// unchanged результат действия, которое не требует запроса.
func (b *Board) unchanged() Result {
	return Result{List: b.Snapshot()}
}

func (b *Board) sectionOf(itemID uuid.UUID) (uuid.UUID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, _ := b.state.FindItem(itemID)
	if s == nil {
		return uuid.Nil, false
	}
	return s.ID, true
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

// withItem находит элемент в копии снимка и передаёт его в fn.
func withItem(l *list.List, itemID uuid.UUID, fn func(s *list.Section, it *list.Item) error) (*list.List, error) {
	s, it := l.FindItem(itemID)
	if it == nil {
		return nil, notFound("элемент", itemID)
	}
	if err := fn(s, it); err != nil {
		return nil, err
	}
	return l, nil
}

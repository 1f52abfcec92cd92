package notify

import (
	"sync"
	"time"

	"listTracker/internal/logger"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification одно сообщение пользователю о результате действия.
type Notification struct {
	Level   Level
	Action  string
	Message string
	Err     error
	At      time.Time
}

func (n Notification) IsError() bool {
	return n.Level == LevelError
}

// Publisher принимает уведомления от движка списка.
type Publisher interface {
	Publish(n Notification)
}

func Success(action, message string) Notification {
	return Notification{Level: LevelSuccess, Action: action, Message: message, At: time.Now()}
}

func Failure(action string, err error) Notification {
	n := Notification{Level: LevelError, Action: action, Err: err, At: time.Now()}
	if err != nil {
		n.Message = err.Error()
	}
	return n
}

// Channel буферизованный канал уведомлений внутри процесса.
// Publish не блокируется: при заполненном буфере уведомление отбрасывается.
type Channel struct {
	mu      sync.Mutex
	ch      chan Notification
	closed  bool
	dropped int
}

func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = 64
	}
	return &Channel{ch: make(chan Notification, buffer)}
}

func (c *Channel) Publish(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.ch <- n:
	default:
		c.dropped++
		logger.Warn("Notify: Буфер уведомлений заполнен, уведомление отброшено",
			zap.String("action", n.Action),
			zap.String("level", string(n.Level)),
			zap.Int("dropped", c.dropped))
	}
}

// C возвращает канал для чтения. Канал закрывается в Close.
func (c *Channel) C() <-chan Notification {
	return c.ch
}

// Drain забирает всё, что уже лежит в буфере, не блокируясь.
func (c *Channel) Drain() []Notification {
	var res []Notification
	for {
		select {
		case n, ok := <-c.ch:
			if !ok {
				return res
			}
			res = append(res, n)
		default:
			return res
		}
	}
}

func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Discard отбрасывает все уведомления.
type Discard struct{}

func (Discard) Publish(Notification) {}

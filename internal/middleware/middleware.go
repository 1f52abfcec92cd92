package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"listTracker/internal/logger"
	"listTracker/internal/models/list"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	RequestIdKey contextKey = "request_id"
	UserKey      contextKey = "user"
)

const (
	SessionCookie   = "session"
	RequestIDHeader = "X-Request-ID"
	CodeRateLimited = "RATE_LIMITED"

	maxRequestIDLength = 64
)

// RequestID берёт id запроса из заголовка X-Request-ID или создаёт новый.
// Чужой id длиннее 64 символов или с непечатными символами заменяется.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(RequestIDHeader)
		if !validRequestID(requestId) {
			requestId = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestId)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIdKey, requestId)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.wroteHeader {
		return
	}
	sw.status = code
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.size += n
	return n, err
}

// Logging пишет итог запроса одной строкой. Маршрут берётся из шаблона chi
// (/item/{id}), поэтому запросы к разным элементам группируются в логах.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Log(levelFor(sw.status), "HTTP_OUT: Запрос обработан",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", routeOf(r)),
			zap.String("client_ip", clientIP(r)),
			zap.Int("status", sw.status),
			zap.Int("bytes_written", sw.size),
			zap.Duration("ms", time.Since(start)),
		)
	})
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zap.ErrorLevel
	case status >= http.StatusBadRequest:
		return zap.WarnLevel
	default:
		return zap.InfoLevel
	}
}

func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type window struct {
	count   int
	resetAt time.Time
}

type limiter struct {
	rpm     int
	period  time.Duration
	now     func() time.Time
	mtx     sync.Mutex
	windows map[string]*window
}

type LimitOption func(*limiter)

// WithLimitClock подменяет часы ограничителя.
func WithLimitClock(now func() time.Time) LimitOption {
	return func(l *limiter) {
		l.now = now
	}
}

// RateLimit ограничивает число запросов в минуту. Запросы с сессией
// считаются по токену, без сессии по IP клиента. Отказ приходит в общем
// конверте ошибки с кодом RATE_LIMITED.
func RateLimit(rpm int, opts ...LimitOption) func(http.Handler) http.Handler {
	l := &limiter{
		rpm:     rpm,
		period:  time.Minute,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := l.take(limitKey(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retry := int(math.Ceil(resetAt.Sub(l.now()).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.Warn("HTTP: Превышен лимит запросов",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("client_ip", clientIP(r)))

				writeFailure(w, r, http.StatusTooManyRequests, CodeRateLimited,
					"Слишком много запросов. Попробуйте позже.", map[string]any{"retry_after": retry})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take списывает запрос с окна ключа и возвращает остаток.
func (l *limiter) take(key string) (int, time.Time, bool) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	if len(l.windows) > 1024 {
		for k, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.windows[key] = w
	}
	if w.count >= l.rpm {
		return 0, w.resetAt, false
	}
	w.count++
	return l.rpm - w.count, w.resetAt, true
}

func limitKey(r *http.Request) string {
	if token := sessionToken(r); token != "" {
		sum := sha256.Sum256([]byte(token))
		return "session:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	if details == nil {
		details = make(map[string]any, 1)
	}
	details["request_id"] = GetRequestID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
		"details": details,
	})
}

// SessionParser разбирает токен сессии в пользователя.
type SessionParser interface {
	Parse(token string) (list.User, error)
}

// Auth пропускает запрос дальше только с действительной сессией.
// Токен берётся из заголовка Authorization: Bearer или из cookie session.
func Auth(sessions SessionParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Parse(sessionToken(r))
			if err != nil {
				logger.Warn("HTTP: Запрос без действительной сессии",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Error(err))

				writeFailure(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Требуется вход в систему", nil)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (list.User, bool) {
	user, ok := ctx.Value(UserKey).(list.User)
	return user, ok
}

// WithUser кладёт пользователя в контекст; используется в тестах обработчиков.
func WithUser(ctx context.Context, user list.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

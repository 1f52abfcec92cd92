package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"listTracker/internal/handlers/dto"
	"listTracker/internal/models/list"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Response конверт успешного ответа сервиса.
type Response struct {
	Message string `json:"message"`
	Content string `json:"content,omitempty"`
	// Item заполняется ответом на PATCH /item/{id}: элемент в том виде,
	// в каком его сохранил сервис.
	Item *list.Item `json:"item,omitempty"`
}

// ID возвращает id созданного объекта: последний сегмент пути в Content.
func (r Response) ID() (uuid.UUID, error) {
	if r.Content == "" {
		return uuid.Nil, errors.New("в ответе нет пути созданного объекта")
	}
	id, err := uuid.Parse(path.Base(strings.TrimRight(r.Content, "/")))
	if err != nil {
		return uuid.Nil, fmt.Errorf("разбор id из %q: %w", r.Content, err)
	}
	return id, nil
}

// APIError ошибка, которую вернул сервис.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// HasCode сообщает, что err это APIError с данным кодом.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, route string, body any, out any) error {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("кодирование тела запроса: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reader)
	if err != nil {
		return fmt.Errorf("создание запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Client: Запрос не выполнен",
			zap.String("method", method),
			zap.String("route", route),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	c.log.Debug("Client: Ответ получен",
		zap.String("method", method),
		zap.String("route", route),
		zap.Int("status", resp.StatusCode),
		zap.Duration("ms", time.Since(start)))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope dto.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code, apiErr.Message, apiErr.Details = envelope.Error, envelope.Message, envelope.Details
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("разбор ответа %s %s: %w", method, route, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, route string, body any) (Response, error) {
	var res Response
	err := c.do(ctx, method, route, body, &res)
	return res, err
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) CreateList(ctx context.Context, name string) (Response, error) {
	return c.send(ctx, http.MethodPost, "/list", dto.CreateListRequest{Name: name})
}

func (c *Client) GetList(ctx context.Context, id uuid.UUID) (*list.List, error) {
	var res dto.ListResponse
	if err := c.do(ctx, http.MethodGet, "/list/"+id.String(), nil, &res); err != nil {
		return nil, err
	}
	if res.List == nil {
		return nil, errors.New("в ответе нет списка")
	}
	return res.List, nil
}

func (c *Client) DeleteList(ctx context.Context, id uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodDelete, "/list/"+id.String(), nil)
}

func (c *Client) SetListFlag(ctx context.Context, id uuid.UUID, flag list.Flag, value bool) (Response, error) {
	return c.send(ctx, http.MethodPatch, "/list/"+id.String(), dto.SetFlagRequest{Flag: flag, Value: value})
}

func (c *Client) AddMember(ctx context.Context, listID uuid.UUID, user list.User) (Response, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/list/%s/member", listID), dto.AddMemberRequest{
		UserID:   user.ID,
		Username: user.Username,
		Color:    user.Color,
	})
}

func (c *Client) CreateSection(ctx context.Context, listID uuid.UUID, name string) (Response, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/list/%s/section", listID), dto.CreateSectionRequest{Name: name})
}

func (c *Client) DeleteSection(ctx context.Context, listID, sectionID uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/list/%s/section/%s", listID, sectionID), nil)
}

func (c *Client) ReindexItem(ctx context.Context, listID, sectionID, itemID uuid.UUID, newIndex, oldIndex int) (Response, error) {
	return c.send(ctx, http.MethodPatch, fmt.Sprintf("/list/%s/section/%s/item", listID, sectionID), dto.ReindexRequest{
		ItemID:   itemID,
		Index:    &newIndex,
		OldIndex: &oldIndex,
	})
}

func (c *Client) CreateTag(ctx context.Context, listID uuid.UUID, name string, color list.Color) (Response, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/list/%s/tag", listID), dto.CreateTagRequest{Name: name, Color: color})
}

func (c *Client) DeleteTag(ctx context.Context, listID, tagID uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/list/%s/tag/%s", listID, tagID), nil)
}

func (c *Client) CreateItem(ctx context.Context, req dto.CreateItemRequest) (Response, error) {
	return c.send(ctx, http.MethodPost, "/item", req)
}

func (c *Client) UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (Response, error) {
	return c.send(ctx, http.MethodPatch, "/item/"+id.String(), req)
}

func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodDelete, "/item/"+id.String(), nil)
}

func (c *Client) LinkTag(ctx context.Context, itemID, tagID uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/item/%s/tag/%s", itemID, tagID), nil)
}

func (c *Client) UnlinkTag(ctx context.Context, itemID, tagID uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/item/%s/tag/%s", itemID, tagID), nil)
}

func (c *Client) AddAssignee(ctx context.Context, itemID, userID uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/item/%s/assignee/%s", itemID, userID), nil)
}

func (c *Client) RemoveAssignee(ctx context.Context, itemID, userID uuid.UUID) (Response, error) {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/item/%s/assignee/%s", itemID, userID), nil)
}

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"listTracker/internal/handlers/dto"
	"listTracker/internal/logger"
	"listTracker/internal/middleware"
	"listTracker/internal/models/list"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListHandler struct {
	Service Service
}

func NewListHandler(svc Service) ListHandler {
	return ListHandler{
		Service: svc,
	}
}

// Routes регистрирует маршруты списков и элементов. Проверка сессии
// навешивается снаружи.
func (h *ListHandler) Routes(r chi.Router) {
	r.Route("/list", func(r chi.Router) {
		r.Post("/", h.CreateList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetList)
			r.Delete("/", h.DeleteList)
			r.Patch("/", h.SetListFlag)

			r.Post("/member", h.AddMember)

			r.Post("/section", h.CreateSection)
			r.Delete("/section/{sid}", h.DeleteSection)
			r.Patch("/section/{sid}/item", h.ReindexItem)

			r.Post("/tag", h.CreateTag)
			r.Delete("/tag/{tid}", h.DeleteTag)
		})
	})

	r.Route("/item", func(r chi.Router) {
		r.Post("/", h.CreateItem)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetItem)
			r.Patch("/", h.UpdateItem)
			r.Delete("/", h.DeleteItem)

			r.Post("/tag/{tagId}", h.LinkTag)
			r.Delete("/tag/{tagId}", h.UnlinkTag)

			r.Post("/assignee/{userId}", h.AddAssignee)
			r.Delete("/assignee/{userId}", h.RemoveAssignee)
		})
	})
}

func (h *ListHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.Service.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис нездоров", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("message", err.Error()))
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("message", "Сервис работает"))
}

func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateListRequest
	if !decodeBody(w, r, &request) {
		return
	}

	user, _ := middleware.GetUser(r.Context())
	l, err := h.Service.CreateList(r.Context(), user, request.Name)
	if err != nil {
		handleError(w, r, err, "create_list")
		return
	}

	logger.Info("HTTP_OUT: Список создан",
		zap.String("list_id", l.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithMessage(w, http.StatusCreated, "Список создан", fmt.Sprintf("/list/%s", l.ID))
}

func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	l, err := h.Service.GetList(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_list")
		return
	}

	logger.Info("HTTP_OUT: Список получен",
		zap.String("list_id", id.String()),
		zap.Int("sections", len(l.Sections)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("message", "Список получен"),
		toPayload("list", l))
}

func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteList(r.Context(), id); err != nil {
		handleError(w, r, err, "delete_list")
		return
	}
	responseWithMessage(w, http.StatusOK, "Список удалён", "")
}

func (h *ListHandler) SetListFlag(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var request dto.SetFlagRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if err := h.Service.SetListFlag(r.Context(), id, request.Flag, request.Value); err != nil {
		handleError(w, r, err, "set_list_flag")
		return
	}
	responseWithMessage(w, http.StatusOK, fmt.Sprintf("Флаг %s = %t", request.Flag, request.Value), "")
}

func (h *ListHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var request dto.AddMemberRequest
	if !decodeBody(w, r, &request) {
		return
	}

	user := list.User{ID: request.UserID, Username: request.Username, Color: request.Color}
	if err := h.Service.AddMember(r.Context(), id, user); err != nil {
		handleError(w, r, err, "add_member")
		return
	}
	responseWithMessage(w, http.StatusCreated, "Участник добавлен",
		fmt.Sprintf("/list/%s/member/%s", id, request.UserID))
}

func (h *ListHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var request dto.CreateSectionRequest
	if !decodeBody(w, r, &request) {
		return
	}

	section, err := h.Service.CreateSection(r.Context(), id, request.Name)
	if err != nil {
		handleError(w, r, err, "create_section")
		return
	}

	logger.Info("HTTP_OUT: Секция создана",
		zap.String("section_id", section.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithMessage(w, http.StatusCreated, "Секция создана",
		fmt.Sprintf("/list/%s/section/%s", id, section.ID))
}

func (h *ListHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sectionID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}

	if err := h.Service.DeleteSection(r.Context(), id, sectionID); err != nil {
		handleError(w, r, err, "delete_section")
		return
	}
	responseWithMessage(w, http.StatusOK, "Секция удалена", "")
}

func (h *ListHandler) ReindexItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sectionID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}
	var request dto.ReindexRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if request.Index == nil || request.OldIndex == nil {
		badRequest(w, r, "index", "нужны index и oldIndex")
		return
	}

	err := h.Service.ReindexItem(r.Context(), id, sectionID, request.ItemID, *request.Index, *request.OldIndex)
	if err != nil {
		handleError(w, r, err, "reindex_item")
		return
	}

	logger.Info("HTTP_OUT: Элемент переставлен",
		zap.String("item_id", request.ItemID.String()),
		zap.Int("old_index", *request.OldIndex),
		zap.Int("new_index", *request.Index),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Порядок обновлён", "")
}

func (h *ListHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var request dto.CreateTagRequest
	if !decodeBody(w, r, &request) {
		return
	}

	tag, err := h.Service.CreateTag(r.Context(), id, request.Name, request.Color)
	if err != nil {
		handleError(w, r, err, "create_tag")
		return
	}
	responseWithMessage(w, http.StatusCreated, fmt.Sprintf("Тег %q создан", tag.Name),
		fmt.Sprintf("/list/%s/tag/%s", id, tag.ID))
}

func (h *ListHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tagID, ok := pathID(w, r, "tid")
	if !ok {
		return
	}

	if err := h.Service.DeleteTag(r.Context(), id, tagID); err != nil {
		handleError(w, r, err, "delete_tag")
		return
	}
	responseWithMessage(w, http.StatusOK, "Тег удалён", "")
}

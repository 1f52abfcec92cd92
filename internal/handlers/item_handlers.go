package handlers

import (
	"fmt"
	"net/http"
	"time"

	"listTracker/internal/handlers/dto"
	"listTracker/internal/logger"
	"listTracker/internal/models/list"
	"listTracker/internal/service"

	"go.uber.org/zap"
)

func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateItemRequest
	if !decodeBody(w, r, &request) {
		return
	}

	item, err := h.Service.CreateItem(r.Context(), service.CreateItemInput{
		SectionID:  request.SectionID,
		Name:       request.Name,
		Priority:   request.Priority,
		DateDue:    request.DueDate,
		ExpectedMs: request.Duration,
	})
	if err != nil {
		handleError(w, r, err, "create_item")
		return
	}

	logger.Info("HTTP_OUT: Элемент создан",
		zap.String("item_id", item.ID.String()),
		zap.Int("section_index", item.SectionIndex),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithMessage(w, http.StatusCreated, fmt.Sprintf("Элемент %q добавлен", item.Name),
		fmt.Sprintf("/item/%s", item.ID))
}

func (h *ListHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.Service.GetItem(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_item")
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("message", "Элемент получен"),
		toPayload("item", item))
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var request dto.UpdateItemRequest
	if !decodeBody(w, r, &request) {
		return
	}
	if request.Empty() {
		badRequest(w, r, "body", "нет полей для обновления")
		return
	}

	options := make([]list.ItemOption, 0, 3)
	if request.Status != nil {
		if !request.Status.Valid() {
			badRequest(w, r, "status", fmt.Sprintf("неизвестный статус %q", *request.Status))
			return
		}
		options = append(options, list.WithStatus(*request.Status, time.Now()))
	}
	switch {
	case request.ClearDateDue:
		options = append(options, list.WithoutDueDate())
	case request.DateDue != nil:
		options = append(options, list.WithDueDate(request.DateDue))
	}
	switch {
	case request.ClearExpectedMs:
		options = append(options, list.WithoutExpectedMs())
	case request.ExpectedMs != nil:
		if *request.ExpectedMs < 0 {
			badRequest(w, r, "expectedMs", "оценка времени не может быть отрицательной")
			return
		}
		options = append(options, list.WithExpectedMs(request.ExpectedMs))
	}

	item, err := h.Service.UpdateItem(r.Context(), id, options...)
	if err != nil {
		handleError(w, r, err, "update_item")
		return
	}

	logger.Info("HTTP_OUT: Элемент обновлён",
		zap.String("item_id", id.String()),
		zap.String("status", string(item.Status)),
		zap.Int("section_index", item.SectionIndex),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("message", fmt.Sprintf("Элемент %q обновлён", item.Name)),
		toPayload("item", item))
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteItem(r.Context(), id); err != nil {
		handleError(w, r, err, "delete_item")
		return
	}
	responseWithMessage(w, http.StatusOK, "Элемент удалён", "")
}

func (h *ListHandler) LinkTag(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tagID, ok := pathID(w, r, "tagId")
	if !ok {
		return
	}

	if err := h.Service.LinkTag(r.Context(), id, tagID); err != nil {
		handleError(w, r, err, "link_tag")
		return
	}
	responseWithMessage(w, http.StatusCreated, "Тег привязан", fmt.Sprintf("/item/%s/tag/%s", id, tagID))
}

func (h *ListHandler) UnlinkTag(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tagID, ok := pathID(w, r, "tagId")
	if !ok {
		return
	}

	if err := h.Service.UnlinkTag(r.Context(), id, tagID); err != nil {
		handleError(w, r, err, "unlink_tag")
		return
	}
	responseWithMessage(w, http.StatusOK, "Тег отвязан", "")
}

func (h *ListHandler) AddAssignee(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	if err := h.Service.AddAssignee(r.Context(), id, userID); err != nil {
		handleError(w, r, err, "add_assignee")
		return
	}
	responseWithMessage(w, http.StatusCreated, "Исполнитель назначен",
		fmt.Sprintf("/item/%s/assignee/%s", id, userID))
}

func (h *ListHandler) RemoveAssignee(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	if err := h.Service.RemoveAssignee(r.Context(), id, userID); err != nil {
		handleError(w, r, err, "remove_assignee")
		return
	}
	responseWithMessage(w, http.StatusOK, "Исполнитель снят", "")
}

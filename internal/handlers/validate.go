package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeBody читает JSON-тело запроса и при ошибке сам пишет ответ.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		responseWithJSON(w, http.StatusUnsupportedMediaType,
			toPayload("error", "UNSUPPORTED_MEDIA_TYPE"),
			toPayload("message", "Content-Type должен быть application/json"))
		return false
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	defer r.Body.Close()

	if err := decoder.Decode(dst); err != nil {
		badRequest(w, r, "body", fmt.Sprintf("неверное тело запроса: %v", err))
		return false
	}
	return true
}

// pathID разбирает uuid из параметра пути и при ошибке сам пишет ответ.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, r, name, "не удалось получить id")
		return uuid.Nil, false
	}
	if id == uuid.Nil {
		badRequest(w, r, name, "id не может быть пустым")
		return uuid.Nil, false
	}
	return id, true
}

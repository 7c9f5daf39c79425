// Package respond пишет JSON-ответы в формате, который ожидает клиент:
// ошибки в поле detail, ошибки валидации картой поле -> сообщения.
package respond

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"detail":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n'))
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"detail": message})
}

// Fields отвечает 400 с картой поле -> список сообщений.
func Fields(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	JSON(w, r, http.StatusBadRequest, fields)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

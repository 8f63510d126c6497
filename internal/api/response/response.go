package response

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type ResponseError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func SuccessJSON(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Message: message})
}

// ErrorJSON err 為 nil 時 error 欄位使用 status 文字
func ErrorJSON(w http.ResponseWriter, status int, err error, message string) {
	res := ResponseError{Message: message}
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Error = http.StatusText(status)
	}
	WriteJSON(w, status, res)
}

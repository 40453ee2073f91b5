package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope for every JSON reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func Success(w http.ResponseWriter, status int, data interface{}, message string) {
	WriteJSON(w, status, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func Failure(w http.ResponseWriter, status int, err string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   err,
	})
}

// FailureWithData reports an error that still carries structured detail,
// such as an image validation result.
func FailureWithData(w http.ResponseWriter, status int, err string, data interface{}) {
	WriteJSON(w, status, Response{
		Success: false,
		Data:    data,
		Error:   err,
	})
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

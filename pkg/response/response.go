// Package response writes the backend's JSON replies.
//
// Every business answer travels as HTTP 200 with a {code, message, data}
// envelope; code 200 is success and anything else is a rejection whose
// message is shown to the user. Only a missing or stale token is signalled
// on the HTTP status itself (401).
package response

import (
	"encoding/json"
	"net/http"
)

// CodeOK is the envelope code of a successful call.
const CodeOK = 200

// Envelope is the body of every business reply.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Page is the data of a paginated list.
type Page struct {
	List     interface{} `json:"list"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// JSON writes v with the given HTTP status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK answers a successful call.
func OK(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Code: CodeOK, Message: message, Data: data})
}

// Paginated answers with one page of list.
func Paginated(w http.ResponseWriter, list interface{}, total, page, size int) {
	OK(w, "success", Page{List: list, Total: total, Page: page, PageSize: size})
}

// Reject answers a refused call: HTTP 200, non-200 code.
func Reject(w http.ResponseWriter, code int, message string) {
	JSON(w, http.StatusOK, Envelope{Code: code, Message: message})
}

// Unauthorized answers 401. The body is not an envelope.
func Unauthorized(w http.ResponseWriter, detail string) {
	JSON(w, http.StatusUnauthorized, map[string]string{"detail": detail})
}

// ValidationError answers 422 with the failing fields.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": errs})
}

// InternalError answers 500.
func InternalError(w http.ResponseWriter) {
	JSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal server error"})
}

// Marshal renders an envelope, for fakes that build bodies ahead of time.
func Marshal(code int, message string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Code: code, Message: message, Data: data})
}

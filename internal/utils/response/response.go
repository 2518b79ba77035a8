// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends the same envelope back to the
// client, success or failure:
//
//	{ "status": true,  "message": "Student fetched", "data": { ... } }
//	{ "status": false, "message": "Student not found" }
//
// Rather than building that map by hand in every handler, we centralise the
// shapes here and let go-chi/render do the encoding.
package response

import (
	"net/http"

	"github.com/go-chi/render"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope.
//
// Status is a boolean (true = the operation succeeded). Message is always a
// human-readable sentence that clients may show to the user as-is. Data is
// omitted entirely when there is nothing to return (errors, delete).
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ListResponse is the envelope for paginated collections. It carries the
// unfiltered row count and echoes the effective page window so clients can
// compute the number of pages without a second request.
type ListResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Data    any    `json:"data"`
}

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes data as JSON with the given HTTP status code.
//
// render.Status stores the code in the request context and render.JSON
// reads it back when it writes the header, so the order of the two calls
// matters: status first, body second.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// OK builds a success envelope.
func OK(message string, data any) Response {
	return Response{Status: true, Message: message, Data: data}
}

// List builds a success envelope for one page of a collection.
func List(message string, data any, total int64, page, limit int) ListResponse {
	return ListResponse{
		Status:  true,
		Message: message,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Data:    data,
	}
}

// Error builds a failure envelope with a message meant for the user.
func Error(message string) Response {
	return Response{Status: false, Message: message}
}

// GeneralError wraps any Go error into a failure envelope.
// Use this for unexpected errors (DB failures, decode errors, etc.)
//
//	response.WriteJSON(w, r, http.StatusInternalServerError,
//	    response.GeneralError(err))
func GeneralError(err error) Response {
	return Error(err.Error())
}

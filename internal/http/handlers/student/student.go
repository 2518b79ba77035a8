// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// The router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a database.
// To inject dependencies we use a factory function that:
//  1. Accepts dependencies (storage)
//  2. Returns a function with the exact signature the router needs
//
// Because the inner function "closes over" the outer parameters, it can
// access `storage` even after the factory call has returned:
//
//	r.Post("/api/students", student.New(storage))
//	//                      ^^^^^^^^^^^^^^^^^^^^
//	//       New(storage) is called ONCE at startup. It returns a handler
//	//       func which is called on EVERY incoming request.
//
// ERROR MAPPING:
// ──────────────
//
//	*validation.Error       → 400 with the validation reason
//	storage.ErrNotFound     → 404 "Student not found"
//	anything else           → 500 with the error text
package student

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/aanand-mishra/student-marks-api/internal/storage"
	"github.com/aanand-mishra/student-marks-api/internal/types"
	"github.com/aanand-mishra/student-marks-api/internal/utils/response"
	"github.com/aanand-mishra/student-marks-api/internal/validation"
)

// Messages sent to clients in the envelope.
const (
	MsgCreated      = "Student created"
	MsgListed       = "Students fetched"
	MsgFetched      = "Student fetched"
	MsgUpdated      = "Student updated"
	MsgDeleted      = "Student deleted"
	MsgNotFound     = "Student not found"
	MsgInvalidID    = "invalid id: must be an integer"
	MsgEmptyBody    = "request body is empty"
	MsgStorageReady = "ok"
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Creates a new student (and optionally its first mark) from the JSON body.
//
// Request body (JSON):
//
//	{ "name": "Ada", "email": "ada@x.com", "phone": "0123456789", "mark": 95 }
//
// Success response (201 Created):
//
//	{ "status": true, "message": "Student created",
//	  "data": { "id": 1, "name": "Ada", "email": "ada@x.com", "phone": "0123456789" } }
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(r)
		log.Info("creating a student")

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		student, err := storage.CreateStudent(r.Context(), in)
		if err != nil {
			log.Error("error creating student", slog.String("error", err.Error()))
			writeStorageError(w, r, err)
			return
		}

		log.Info("student created", slog.Int64("id", student.ID))
		response.WriteJSON(w, r, http.StatusCreated, response.OK(MsgCreated, student))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students?page=1&limit=10
// Returns one page of students, each with all of its marks.
//
// Success response (200 OK):
//
//	{ "status": true, "message": "Students fetched",
//	  "total": 7, "page": 2, "limit": 5,
//	  "data": [ { "id": 6, ..., "marks": [] },
//	            { "id": 7, ..., "marks": [ { "id": 3, "student_id": 7, "mark": 56 } ] } ] }
//
// "data" is [] (not null) past the last page.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := parsePageRequest(r)

		log := requestLogger(r)
		log.Info("getting students",
			slog.Int("page", page.Page),
			slog.Int("limit", page.Limit))

		students, total, err := storage.GetStudents(r.Context(), page)
		if err != nil {
			log.Error("error getting students", slog.String("error", err.Error()))
			writeStorageError(w, r, err)
			return
		}

		response.WriteJSON(w, r, http.StatusOK,
			response.List(MsgListed, students, total, page.Page, page.Limit))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
// Fetches one student with its most recent mark ("mark": null when none).
//
// Error responses:
//
//	400 Bad Request  — id is not a valid integer
//	404 Not Found    — no student with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		log := requestLogger(r).With(slog.Int64("id", id))
		log.Info("getting a student")

		student, err := storage.GetStudentByID(r.Context(), id)
		if err != nil {
			log.Error("error getting student", slog.String("error", err.Error()))
			writeStorageError(w, r, err)
			return
		}

		response.WriteJSON(w, r, http.StatusOK, response.OK(MsgFetched, student))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces name, email and phone. When a mark is supplied, the student's
// latest mark is overwritten (or created if the student has none).
//
// Success response (200 OK) — the updated student, without its mark.
//
// Error responses:
//
//	400 Bad Request  — invalid id, empty body, or validation failure
//	404 Not Found    — no student with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		log := requestLogger(r).With(slog.Int64("id", id))
		log.Info("updating a student")

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		updated, err := storage.UpdateStudentByID(r.Context(), id, in)
		if err != nil {
			log.Error("error updating student", slog.String("error", err.Error()))
			writeStorageError(w, r, err)
			return
		}

		log.Info("student updated")
		response.WriteJSON(w, r, http.StatusOK, response.OK(MsgUpdated, updated))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/students/{id}
// Removes the student and every mark it owns. Deleting an id that does not
// exist is not an error: the end state is the same.
//
// Success response (200 OK):
//
//	{ "status": true, "message": "Student deleted" }
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		log := requestLogger(r).With(slog.Int64("id", id))
		log.Info("deleting a student")

		if err := storage.DeleteStudentByID(r.Context(), id); err != nil {
			log.Error("error deleting student", slog.String("error", err.Error()))
			writeStorageError(w, r, err)
			return
		}

		log.Info("student deleted")
		response.WriteJSON(w, r, http.StatusOK, response.OK(MsgDeleted, nil))
	}
}

// Health handles GET /health. It pings the database so a load balancer
// stops routing to an instance whose storage has gone away.
func Health(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storage.Ping(r.Context()); err != nil {
			requestLogger(r).Error("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, r, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		response.WriteJSON(w, r, http.StatusOK, response.OK(MsgStorageReady, nil))
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

// requestLogger tags log lines with the id chi's RequestID middleware
// assigned, so all lines for one request can be grepped together.
func requestLogger(r *http.Request) *slog.Logger {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		return slog.With(slog.String("request_id", reqID))
	}
	return slog.Default()
}

// parseID reads the {id} path segment. On failure it writes the 400 itself
// and returns ok=false.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, r, http.StatusBadRequest, response.Error(MsgInvalidID))
		return 0, false
	}
	return id, true
}

// decodeInput decodes, normalises and validates a write payload. On failure
// it writes the 400 itself and returns ok=false.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.StudentInput, bool) {
	var in types.StudentInput

	// render.DecodeJSON reads the body fully and unmarshals it; an empty
	// body surfaces as io.EOF.
	err := render.DecodeJSON(r.Body, &in)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, r, http.StatusBadRequest, response.Error(MsgEmptyBody))
		return in, false
	}
	if err != nil {
		response.WriteJSON(w, r, http.StatusBadRequest, response.GeneralError(err))
		return in, false
	}

	in.Normalize()
	if err := validation.Validate(in); err != nil {
		response.WriteJSON(w, r, http.StatusBadRequest, response.GeneralError(err))
		return in, false
	}
	return in, true
}

// writeStorageError maps a storage failure to its HTTP status.
func writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, r, http.StatusNotFound, response.Error(MsgNotFound))
		return
	}
	response.WriteJSON(w, r, http.StatusInternalServerError, response.GeneralError(err))
}

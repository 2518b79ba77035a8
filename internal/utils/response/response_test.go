package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_SuccessEnvelope(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteJSON(w, r, http.StatusCreated, OK("Student created", map[string]int{"id": 1}))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":true,"message":"Student created","data":{"id":1}}`, w.Body.String())
}

func TestWriteJSON_ErrorEnvelopeOmitsData(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteJSON(w, r, http.StatusInternalServerError, GeneralError(errors.New("database is locked")))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":false,"message":"database is locked"}`, w.Body.String())
}

func TestWriteJSON_ListEnvelope(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteJSON(w, r, http.StatusOK, List("Students fetched", []int{}, 7, 2, 5))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"status":true,"message":"Students fetched","total":7,"page":2,"limit":5,"data":[]}`,
		w.Body.String())
}

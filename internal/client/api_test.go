package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/students", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":true,"message":"Students fetched","total":7,"page":2,"limit":5,
			"data":[{"id":6,"name":"f","email":"f@x.com","phone":"","marks":[{"id":1,"student_id":6,"mark":40}]}]}`)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL+"/", time.Second)
	res, err := api.List(context.Background(), 2, 5)
	require.NoError(t, err)

	assert.EqualValues(t, 7, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 5, res.Limit)
	require.Len(t, res.Students, 1)
	assert.Equal(t, "f", res.Students[0].Name)
	require.Len(t, res.Students[0].Marks, 1)
	assert.Equal(t, 40.0, res.Students[0].Marks[0].Mark)
}

func TestAPI_CreateSendsFormAsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "Ada", "email": "ada@x.com", "phone": "", "mark": "95"}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"status":true,"message":"Student created","data":{"id":1}}`)
	}))
	defer srv.Close()

	msg, err := NewAPI(srv.URL, time.Second).Create(context.Background(),
		Form{Name: "Ada", Email: "ada@x.com", Mark: "95"})
	require.NoError(t, err)
	assert.Equal(t, "Student created", msg)
}

func TestAPI_UpdateDeleteAndGetPaths(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"status":true,"message":"Student fetched","data":{"id":3,"name":"c","email":"c@x.com","phone":"","mark":null}}`)
		case http.MethodPut:
			_, _ = io.WriteString(w, `{"status":true,"message":"Student updated","data":{"id":3}}`)
		case http.MethodDelete:
			_, _ = io.WriteString(w, `{"status":true,"message":"Student deleted"}`)
		}
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, time.Second)
	ctx := context.Background()

	st, err := api.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "c", st.Name)
	assert.Nil(t, st.Mark)

	msg, err := api.Update(ctx, 3, Form{Name: "c", Email: "c@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Student updated", msg)

	msg, err = api.Delete(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Student deleted", msg)

	assert.Equal(t, []string{
		"GET /api/students/3",
		"PUT /api/students/3",
		"DELETE /api/students/3",
	}, seen)
}

func TestAPI_ErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status":false,"message":"Invalid phone number"}`)
	}))
	defer srv.Close()

	_, err := NewAPI(srv.URL, time.Second).Create(context.Background(), Form{Phone: "1"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid phone number", apiErr.Message)
	assert.Equal(t, "Invalid phone number", Message(err, MsgFailed))
}

func TestAPI_ErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAPI(srv.URL, time.Second).Delete(context.Background(), 1)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, MsgFailed, Message(err, MsgFailed))
}

func TestAPI_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewAPI(srv.URL, time.Second).List(context.Background(), 1, 5)
	require.Error(t, err)
	assert.Equal(t, MsgLoadFailed, Message(err, MsgLoadFailed))
}

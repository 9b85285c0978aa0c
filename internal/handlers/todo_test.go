package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytakahashi/todo-api/internal/config"
	"github.com/ytakahashi/todo-api/internal/models"
	"github.com/ytakahashi/todo-api/internal/services"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setupTest(t *testing.T) *echo.Echo {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := services.NewGormStore(context.Background(), config.DriverSQLite, dsn, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return setupWithStore(store)
}

func setupWithStore(store services.TodoStore) *echo.Echo {
	e := echo.New()
	NewTodoHandler(store, testLogger()).Register(e)
	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWashCarScenario(t *testing.T) {
	e := setupTest(t)

	rec := doRequest(e, http.MethodPost, "/todoitems", `{"name":"wash car","isComplete":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"wash car","isComplete":false}`, rec.Body.String())
	assert.Equal(t, "/todoitems/1", rec.Header().Get(echo.HeaderLocation))

	rec = doRequest(e, http.MethodGet, "/todoitems/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"wash car","isComplete":false}`, rec.Body.String())

	rec = doRequest(e, http.MethodPut, "/todoitems/1", `{"name":"wash car","isComplete":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/todoitems/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"wash car","isComplete":true}]`, rec.Body.String())

	rec = doRequest(e, http.MethodDelete, "/todoitems/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/todoitems/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestListAll(t *testing.T) {
	e := setupTest(t)

	rec := doRequest(e, http.MethodGet, "/todoitems", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for i := 0; i < 4; i++ {
		body := fmt.Sprintf(`{"name":"item %d","isComplete":%t}`, i, i%2 == 1)
		require.Equal(t, http.StatusCreated, doRequest(e, http.MethodPost, "/todoitems", body).Code)
	}

	rec = doRequest(e, http.MethodGet, "/todoitems", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.TodoItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 4)
	for i, v := range all {
		assert.Equal(t, i+1, v.ID)
		assert.Equal(t, fmt.Sprintf("item %d", i), *v.Name)
	}

	rec = doRequest(e, http.MethodGet, "/todoitems/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var completed []models.TodoItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	require.Len(t, completed, 2)
	for _, v := range completed {
		assert.True(t, v.IsComplete)
	}
}

func TestListCompletedEmpty(t *testing.T) {
	e := setupTest(t)

	doRequest(e, http.MethodPost, "/todoitems", `{"name":"open","isComplete":false}`)

	rec := doRequest(e, http.MethodGet, "/todoitems/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateIgnoresIDAndKeepsNullName(t *testing.T) {
	e := setupTest(t)

	rec := doRequest(e, http.MethodPost, "/todoitems", `{"id":77,"isComplete":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":null,"isComplete":true}`, rec.Body.String())
	assert.Equal(t, "/todoitems/1", rec.Header().Get(echo.HeaderLocation))

	rec = doRequest(e, http.MethodPost, "/todoitems", `{"name":"","isComplete":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":2,"name":"","isComplete":false}`, rec.Body.String())
}

func TestUpdateKeepsID(t *testing.T) {
	e := setupTest(t)

	doRequest(e, http.MethodPost, "/todoitems", `{"name":"wash car","isComplete":false}`)

	rec := doRequest(e, http.MethodPut, "/todoitems/1", `{"id":5,"name":"wash bike","isComplete":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(e, http.MethodGet, "/todoitems/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"wash bike","isComplete":true}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, doRequest(e, http.MethodGet, "/todoitems/5", "").Code)
}

func TestMissingItem(t *testing.T) {
	e := setupTest(t)

	tests := []struct {
		method string
		body   string
	}{
		{http.MethodGet, ""},
		{http.MethodPut, `{"name":"x","isComplete":true}`},
		{http.MethodDelete, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := doRequest(e, tt.method, "/todoitems/42", tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestBadRequests(t *testing.T) {
	e := setupTest(t)
	doRequest(e, http.MethodPost, "/todoitems", `{"name":"wash car"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"get non-integer id", http.MethodGet, "/todoitems/abc", ""},
		{"put non-integer id", http.MethodPut, "/todoitems/abc", `{"name":"x"}`},
		{"delete non-integer id", http.MethodDelete, "/todoitems/abc", ""},
		{"post malformed json", http.MethodPost, "/todoitems", `{"name":`},
		{"put malformed json", http.MethodPut, "/todoitems/1", `{"isComplete":"yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

type failingStore struct {
	services.TodoStore
}

var errBroken = errors.New("backend down")

func (failingStore) List(context.Context) ([]*models.TodoItem, error) { return nil, errBroken }

func (failingStore) Find(context.Context, int) (*models.TodoItem, error) { return nil, errBroken }

func TestStoreFailureIsInternalError(t *testing.T) {
	e := setupWithStore(failingStore{})

	assert.Equal(t, http.StatusInternalServerError, doRequest(e, http.MethodGet, "/todoitems", "").Code)
	assert.Equal(t, http.StatusInternalServerError, doRequest(e, http.MethodGet, "/todoitems/1", "").Code)
}

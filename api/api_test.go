/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/staffing/database"
	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/testhelpers"
	"github.com/uptrace/bun"
)

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T) *client {
	db := testhelpers.NewDB(t)
	h := NewRouter(Options{
		DB: func() bun.IDB { return db },
		Health: func(ctx context.Context) *database.HealthStatus {
			return &database.HealthStatus{Healthy: true, Connected: true}
		},
	})
	return &client{t: t, handler: h}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decode[V any](t *testing.T, rec *httptest.ResponseRecorder) V {
	t.Helper()
	var v V
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCompanyEndToEnd(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodPut, "/company", `{"name":"Acme","publiclyListed":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	acme := decode[model.Company](t, rec)
	require.NotNil(t, acme.ID)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = c.do(http.MethodPost, "/company/search", `{"name":"Ac"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]model.Company](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Acme", found[0].Name)

	path := fmt.Sprintf("/company/%d", *acme.ID)
	rec = c.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = c.do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decode[ErrorResponse](t, rec)
	assert.Equal(t, ErrCodeNotFound, errBody.Code)

	rec = c.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAllIsNeverNull(t *testing.T) {
	c := newClient(t)
	rec := c.do(http.MethodGet, "/company", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestValidationFailureIsPreconditionFailed(t *testing.T) {
	c := newClient(t)

	rec := c.do(http.MethodPut, "/company", `{"publiclyListed":true}`)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	violations := decode[map[string]string](t, rec)
	assert.Contains(t, violations, "name")

	rec = c.do(http.MethodPut, "/company", `null`)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec), "")

	rec = c.do(http.MethodPut, "/company", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidPayload, decode[ErrorResponse](t, rec).Code)
}

func TestUpdateAndConflict(t *testing.T) {
	c := newClient(t)
	acme := decode[model.Company](t, c.do(http.MethodPut, "/company", `{"name":"Acme"}`))
	path := fmt.Sprintf("/company/%d", *acme.ID)

	rec := c.do(http.MethodPut, path, `{"name":"Acme Corp","version":0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Company](t, rec)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, *acme.ID, *updated.ID)

	rec = c.do(http.MethodPut, path, `{"name":"Stale","version":0}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeRowVersionConflict, decode[ErrorResponse](t, rec).Code)

	rec = c.do(http.MethodPut, "/company/999", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	got := decode[model.Company](t, c.do(http.MethodGet, path, ""))
	assert.Equal(t, "Acme Corp", got.Name)
}

func TestSearchBodies(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPut, "/company", `{"name":"xabcx","publiclyListed":true}`)
	c.do(http.MethodPut, "/company", `{"name":"ABC"}`)

	for _, body := range []string{"", "null", "{}", `{"publiclyListed":false}`} {
		rec := c.do(http.MethodPost, "/company/search", body)
		require.Equal(t, http.StatusOK, rec.Code, body)
		assert.Len(t, decode[[]model.Company](t, rec), 2, body)
	}

	rec := c.do(http.MethodPost, "/company/search", `{"name":"abc"}`)
	names := decode[[]model.Company](t, rec)
	require.Len(t, names, 1)
	assert.Equal(t, "xabcx", names[0].Name)

	rec = c.do(http.MethodPost, "/company/search", `{"publiclyListed":true}`)
	assert.Len(t, decode[[]model.Company](t, rec), 1)
}

func TestEmployeeResource(t *testing.T) {
	c := newClient(t)
	acme := decode[model.Company](t, c.do(http.MethodPut, "/company", `{"name":"Acme"}`))

	rec := c.do(http.MethodPut, "/employee", `{"lastName":"Lee"}`)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec), "company")

	body := fmt.Sprintf(`{"firstName":"Ann","lastName":"Lee","salary":10,"dateOfBirth":"1990-05-17T00:00:00Z","company":{"id":%d}}`, *acme.ID)
	rec = c.do(http.MethodPut, "/employee", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ann := decode[model.Employee](t, rec)
	require.NotNil(t, ann.ID)

	rec = c.do(http.MethodGet, fmt.Sprintf("/employee/%d", *ann.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Employee](t, rec)
	require.NotNil(t, got.Company)
	assert.Equal(t, "Acme", got.Company.Name)

	rec = c.do(http.MethodPost, "/employee/search", fmt.Sprintf(`{"company":{"id":%d}}`, *acme.ID))
	matches := decode[[]model.Employee](t, rec)
	require.Len(t, matches, 1)
	assert.Equal(t, got.Company, matches[0].Company)

	listed := decode[[]model.Employee](t, c.do(http.MethodGet, "/employee", ""))
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Company)
	assert.Equal(t, "Acme", listed[0].Company.Name)

	rec = c.do(http.MethodPut, "/employee", `{"lastName":"Orphan","company":{"id":404}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternal, decode[ErrorResponse](t, rec).Code)
}

func TestTrailingDataIsRejected(t *testing.T) {
	c := newClient(t)
	for _, body := range []string{`{"name":"X"} {"name":"Y"}`, `{"name":"X"}]`, `{"name":"X"} x`} {
		rec := c.do(http.MethodPut, "/company", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, ErrCodeInvalidPayload, decode[ErrorResponse](t, rec).Code)
	}
	rec := c.do(http.MethodPost, "/company/search", `null null`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPut, "/company", "{\"name\":\"X\"}\n")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["X"]`, namesOf(t, c.do(http.MethodGet, "/company", "")))
}

func namesOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out []string
	for _, company := range decode[[]model.Company](t, rec) {
		out = append(out, company.Name)
	}
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	return string(raw)
}

func TestRequestsFollowReconnect(t *testing.T) {
	ctx := context.Background()
	cfg := database.DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "staffing")
	cfg.HealthCheckInterval = 0

	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })
	require.NoError(t, manager.RunMigrations(ctx, database.DefaultConfig()))

	c := &client{t: t, handler: NewRouter(Options{
		DB:     func() bun.IDB { return manager.GetDB() },
		Health: manager.HealthCheck,
	})}
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/company", `{"name":"Acme"}`).Code)

	require.NoError(t, manager.Reconnect(ctx))

	rec := c.do(http.MethodGet, "/company", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `["Acme"]`, namesOf(t, rec))
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, Health, "").Code)
}

func TestUnavailableDatabase(t *testing.T) {
	c := &client{t: t, handler: NewRouter(Options{
		DB: func() bun.IDB { return nil },
	})}
	rec := c.do(http.MethodGet, "/company", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, ErrCodeUnavailable, decode[ErrorResponse](t, rec).Code)
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	rec := c.do(http.MethodGet, Health, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[database.HealthStatus](t, rec).Healthy)
}

func TestRequestIDIsPropagated(t *testing.T) {
	c := newClient(t)
	req := httptest.NewRequest(http.MethodGet, "/company", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, RecoveryMiddleware)
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternal, decode[ErrorResponse](t, rec).Code)
}

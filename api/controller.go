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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tomoncle/staffing"
	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/repository"
	"github.com/tomoncle/staffing/validation"
	"github.com/uptrace/bun"
)

// ResourceController serves the CRUD endpoints of one entity type. The
// database is resolved and a new repository and service are built for every
// request, so a reconnected pool is picked up immediately.
type ResourceController[T any, P model.Entity[T]] struct {
	db        func() bun.IDB
	validator validation.Validator
}

func NewResourceController[T any, P model.Entity[T]](db func() bun.IDB, v validation.Validator) *ResourceController[T, P] {
	return &ResourceController[T, P]{db: db, validator: v}
}

func (c *ResourceController[T, P]) service(w http.ResponseWriter, r *http.Request) (staffing.Service[T, P], bool) {
	db := c.db()
	if db == nil {
		RespondErrorWithCode(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Database unavailable", errDatabaseUnavailable)
		return nil, false
	}
	return staffing.NewService(repository.NewRepository[T, P](db), c.validator), true
}

// Register mounts the six endpoints under base, byID and search.
func (c *ResourceController[T, P]) Register(router *mux.Router, base, byID, search string) {
	router.HandleFunc(base, c.ListAllHandler).Methods(http.MethodGet)
	router.HandleFunc(base, c.CreateHandler).Methods(http.MethodPut)
	router.HandleFunc(search, c.SearchHandler).Methods(http.MethodPost)
	router.HandleFunc(byID, c.RetrieveHandler).Methods(http.MethodGet)
	router.HandleFunc(byID, c.UpdateHandler).Methods(http.MethodPut)
	router.HandleFunc(byID, c.DeleteHandler).Methods(http.MethodDelete)
}

func (c *ResourceController[T, P]) RetrieveHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	entity, err := svc.Retrieve(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, entity)
}

func (c *ResourceController[T, P]) ListAllHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	entities, err := svc.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, entities)
}

func (c *ResourceController[T, P]) CreateHandler(w http.ResponseWriter, r *http.Request) {
	entity, ok := decodeEntity[T, P](w, r, false)
	if !ok {
		return
	}
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	saved, err := svc.Create(r.Context(), entity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, saved)
}

func (c *ResourceController[T, P]) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entity, ok := decodeEntity[T, P](w, r, false)
	if !ok {
		return
	}
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	saved, err := svc.Update(r.Context(), &id, entity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, saved)
}

func (c *ResourceController[T, P]) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	if err := svc.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SearchHandler treats an empty or null body as an unset example.
func (c *ResourceController[T, P]) SearchHandler(w http.ResponseWriter, r *http.Request) {
	example, ok := decodeEntity[T, P](w, r, true)
	if !ok {
		return
	}
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	entities, err := svc.Search(r.Context(), example)
	if err != nil {
		respondError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, entities)
}

var (
	errDatabaseUnavailable = errors.New("database not initialized")
	errTrailingData        = errors.New("unexpected data after the JSON value")
)

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		RespondErrorWithCode(w, r, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid id "+raw, err)
		return 0, false
	}
	return id, true
}

// decodeEntity reads a single JSON value from the body. A literal null
// yields a nil entity; an empty body is accepted only when allowEmpty is set.
func decodeEntity[T any, P model.Entity[T]](w http.ResponseWriter, r *http.Request, allowEmpty bool) (P, bool) {
	var entity P
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&entity)
	if err == nil {
		var extra json.RawMessage
		if !errors.Is(dec.Decode(&extra), io.EOF) {
			err = errTrailingData
		}
	}
	switch {
	case err == nil:
		return entity, true
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil, true
	default:
		RespondErrorWithCode(w, r, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid request payload", err)
		return nil, false
	}
}

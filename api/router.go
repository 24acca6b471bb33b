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
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tomoncle/staffing/database"
	"github.com/tomoncle/staffing/model"
	"github.com/tomoncle/staffing/utils"
	"github.com/tomoncle/staffing/validation"
	"github.com/uptrace/bun"
)

var logger = utils.NewLogger("HTTP")

type Options struct {
	// DB is called once per request. It defaults to the global database so
	// that reconnects reach the handlers.
	DB             func() bun.IDB
	Validator      validation.Validator
	AllowedOrigins []string
	// Health defaults to the global database health check.
	Health func(ctx context.Context) *database.HealthStatus
}

// NewRouter wires the company and employee resources, the health check and
// the middleware chain.
func NewRouter(opts Options) http.Handler {
	if opts.Validator == nil {
		opts.Validator = validation.MustNewValidator()
	}
	if opts.DB == nil {
		opts.DB = globalDB
	}
	if opts.Health == nil {
		opts.Health = database.GetHealthStatus
	}

	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, AccessLogMiddleware, RecoveryMiddleware)

	router.HandleFunc(Health, healthHandler(opts.Health)).Methods(http.MethodGet)

	NewResourceController[model.Company](opts.DB, opts.Validator).
		Register(router, CompanyBase, CompanyByID, CompanySearch)
	NewResourceController[model.Employee](opts.DB, opts.Validator).
		Register(router, EmployeeBase, EmployeeByID, EmployeeSearch)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	co := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return co.Handler(router)
}

func globalDB() bun.IDB {
	if db := database.GetDB(); db != nil {
		return db
	}
	return nil
}

func healthHandler(check func(ctx context.Context) *database.HealthStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		RespondWithJSON(w, code, status)
	}
}

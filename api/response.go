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
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/staffing/types"
)

const (
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeNotFound           = "not_found"
	ErrCodeRowVersionConflict = "row_version_conflict"
	ErrCodeInternal           = "internal_server_error"
	ErrCodeUnavailable        = "service_unavailable"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondErrorWithCode writes an ErrorResponse and logs devErr, which never
// reaches the client.
func RespondErrorWithCode(w http.ResponseWriter, r *http.Request, status int, code, publicMessage string, devErr error) {
	RespondWithJSON(w, status, ErrorResponse{Code: code, Message: publicMessage})

	entry := logger.WithFields(logrus.Fields{
		"status_code": status,
		"request_id":  RequestIDFromContext(r.Context()),
	})
	if devErr != nil {
		entry = entry.WithError(devErr)
	}
	if status >= http.StatusInternalServerError {
		entry.Error(publicMessage)
	} else {
		entry.Debug(publicMessage)
	}
}

// respondError maps the service error taxonomy onto HTTP. Violations are
// sent as the bare field to message map.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		RespondWithJSON(w, http.StatusPreconditionFailed, ve.Violations)
	case errors.Is(err, types.ErrNotFound):
		RespondErrorWithCode(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, types.ErrConflict):
		RespondErrorWithCode(w, r, http.StatusConflict, ErrCodeRowVersionConflict, err.Error(), nil)
	default:
		RespondErrorWithCode(w, r, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", err)
	}
}

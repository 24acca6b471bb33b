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

package database

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var querySilent atomic.Bool

// SilenceQueryLog suppresses QueryLogHook output, e.g. while migrating.
func SilenceQueryLog(b bool) {
	querySilent.Store(b)
}

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

// QueryLogHook logs executed queries through the package Logger. With
// logAll unset only failed queries and queries slower than slowTime are
// reported.
type QueryLogHook struct {
	logger   Logger
	logAll   bool
	slowTime time.Duration
}

var _ bun.QueryHook = (*QueryLogHook)(nil)

func NewQueryLogHook(logger Logger, logAll bool, slowTime time.Duration) *QueryLogHook {
	if logger == nil {
		logger = GetLogger()
	}
	return &QueryLogHook{logger: logger, logAll: logAll, slowTime: slowTime}
}

func (h *QueryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if querySilent.Load() {
		return
	}

	duration := time.Since(event.StartTime).Round(time.Microsecond)
	query := colorQuery(event)

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) && !errors.Is(event.Err, sql.ErrTxDone):
		h.logger.Error("[BUN] "+query, "duration", duration, "error", event.Err)
	case h.slowTime > 0 && duration > h.slowTime:
		h.logger.Warn("[BUN_SLOW] "+query, "duration", duration, "threshold", h.slowTime)
	case h.logAll:
		h.logger.Debug("[BUN] "+query, "duration", duration)
	}
}

func colorQuery(event *bun.QueryEvent) string {
	if c, ok := operationColors[event.Operation()]; ok {
		return c.Sprint(event.Query)
	}
	return color.New(color.FgRed).Sprint(event.Query)
}

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

// Package testhelpers provides a private in-memory database with the
// staffing schema for package tests.
package testhelpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/staffing/database"
	"github.com/uptrace/bun"

	_ "github.com/tomoncle/staffing/model"
)

// NewDB connects a fresh in-memory SQLite database, creates the registered
// tables with foreign keys and closes it when the test ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DBName = database.MemoryDBName
	cfg.ConnectionConfig.HealthCheckInterval = 0

	manager := database.NewDatabaseManager(&cfg.ConnectionConfig)
	ctx := context.Background()
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })

	require.NoError(t, manager.RunMigrations(ctx, cfg))
	return manager.GetDB()
}

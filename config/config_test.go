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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  port: 9090
  allowed_origins: ["https://a.example"]
log:
  level: debug
database:
  connection:
    type: postgres
    host: db
    port: 5432
    dbname: staffing
    slow_query_time: 250ms
  migrate:
    enable_migrate_on_startup: true
    enable_foreign_key: true
  init:
    auto_init_on_migration: true
    environment: dev
validation:
  rules_file: configs/validation.yaml
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, []string{"https://a.example"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	db := cfg.ConfigLoader()
	assert.Equal(t, "postgres", db.ConnectionConfig.Type)
	assert.Equal(t, 250*time.Millisecond, db.ConnectionConfig.SlowQueryTime)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, db.ConnectionConfig.ConnectTimeout)
	assert.True(t, db.DataInitConfig.AutoInitOnMigration)
	assert.Equal(t, "dev", db.DataInitConfig.Environment)
	assert.Equal(t, "configs/sql", db.DataInitConfig.Filepath)
	assert.Equal(t, "configs/validation.yaml", cfg.Validation.RulesFile)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7000")
	t.Setenv("APP_ALLOWED_ORIGINS", "https://x.example, https://y.example")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("VALIDATION_RULES_FILE", "/etc/rules.yaml")
	t.Setenv("LOG_OUTPUT", "stderr")

	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.App.Port)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/etc/rules.yaml", cfg.Validation.RulesFile)
	assert.Equal(t, "stderr", cfg.Log.Output)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Equal(t, "sqlite", cfg.Database.ConnectionConfig.Type)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

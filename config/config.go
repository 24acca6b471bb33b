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

// Package config loads the application configuration from a YAML file, an
// optional .env file and the environment, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tomoncle/staffing/database"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name            string        `yaml:"name"`
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr or a file path
}

type ValidationConfig struct {
	RulesFile string `yaml:"rules_file"`
}

type Config struct {
	App        AppConfig        `yaml:"app"`
	Log        LogConfig        `yaml:"log"`
	Database   database.Config  `yaml:"database"`
	Validation ValidationConfig `yaml:"validation"`
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)

func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:            "staffing",
			Port:            8080,
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Log:      LogConfig{Level: "info", Format: "text", Output: "stdout"},
		Database: *database.DefaultConfig(),
	}
}

// Load reads path on top of the defaults and applies the environment. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.overrideFromEnv()
	return cfg, nil
}

func (c *Config) overrideFromEnv() {
	if port := os.Getenv("APP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.App.Port = p
		}
	}
	if origins := os.Getenv("APP_ALLOWED_ORIGINS"); origins != "" {
		c.App.AllowedOrigins = c.App.AllowedOrigins[:0]
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.App.AllowedOrigins = append(c.App.AllowedOrigins, o)
			}
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		c.Log.Output = output
	}
	if rules := os.Getenv("VALIDATION_RULES_FILE"); rules != "" {
		c.Validation.RulesFile = rules
	}
}

// ConfigLoader exposes the database section to the database package.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

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

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomoncle/staffing/api"
	"github.com/tomoncle/staffing/config"
	"github.com/tomoncle/staffing/database"
	"github.com/tomoncle/staffing/utils"
	"github.com/tomoncle/staffing/validation"

	_ "github.com/tomoncle/staffing/model"
)

var log = utils.NewLogger("MAIN")

func main() {
	configPath := flag.String("config", "configs/application.yaml", "path to the YAML configuration file")
	seedEnv := flag.String("seed", "", "execute the SQL seed files of this environment before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	utils.ConfigureLogLevel(cfg.Log.Level)
	utils.ConfigureLogFormat(cfg.Log.Format)
	out, closeOutput, err := utils.OpenLogOutput(cfg.Log.Output)
	if err != nil {
		log.WithError(err).Fatal("Failed to open log output")
	}
	utils.ConfigureLogOutput(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, *seedEnv)
	if err != nil {
		log.WithError(err).Error("Server stopped with error")
	}
	_ = closeOutput()
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seedEnv string) error {
	if _, err := database.InitDB(ctx, cfg.ConfigLoader()); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()
	stats := database.GetDatabaseStats()
	log.WithField("max_open_conns", stats.MaxOpenConns).WithField("open_conns", stats.OpenConns).Info("Database ready")

	if seedEnv != "" {
		if err := database.SeedData(ctx, seedEnv); err != nil {
			return err
		}
	}

	rules, err := validation.LoadRules(cfg.Validation.RulesFile)
	if err != nil {
		return err
	}
	validator, err := validation.NewValidator(rules)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(api.Options{
			Validator:      validator,
			AllowedOrigins: cfg.App.AllowedOrigins,
		}),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting %s on %s", cfg.App.Name, cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

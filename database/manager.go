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
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

// MemoryDBName selects a private in-memory SQLite database.
const MemoryDBName = ":memory:"

const healthCheckTimeout = 5 * time.Second

// driverSpec binds a configured database type to its database/sql driver,
// DSN layout and Bun dialect.
type driverSpec struct {
	driverName string
	dsn        func(cfg *ConnectionConfig) string
	dialect    func() schema.Dialect
}

var (
	mysqlDriver = driverSpec{
		driverName: "mysql",
		dsn:        mysqlDSN,
		dialect:    func() schema.Dialect { return mysqldialect.New() },
	}
	postgresDriver = driverSpec{
		driverName: "postgres",
		dsn:        postgresDSN,
		dialect:    func() schema.Dialect { return pgdialect.New() },
	}
	sqliteDriver = driverSpec{
		driverName: sqliteshim.ShimName,
		dsn:        func(cfg *ConnectionConfig) string { return sqliteDSN(cfg.DBName) },
		dialect:    func() schema.Dialect { return sqlitedialect.New() },
	}

	drivers = map[string]driverSpec{
		"mysql":      mysqlDriver,
		"postgres":   postgresDriver,
		"postgresql": postgresDriver,
		"sqlite":     sqliteDriver,
		"sqlite3":    sqliteDriver,
	}
)

func mysqlDSN(cfg *ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func postgresDSN(cfg *ConnectionConfig) string {
	query := url.Values{}
	query.Set("sslmode", cmp.Or(cfg.SSLMode, "disable"))
	query.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.DBName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// sqliteDSN maps the configured name to a file DSN. Every in-memory
// database gets a unique name so that managers never share state.
func sqliteDSN(name string) string {
	if name == "" || name == MemoryDBName {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}
	return fmt.Sprintf("%s.db", name)
}

type defaultDatabaseManager struct {
	config *ConnectionConfig

	mu          sync.RWMutex
	db          *bun.DB
	logger      Logger
	stopMonitor context.CancelFunc

	// failures is owned by the monitor goroutine.
	failures int
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// A nil config falls back to DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{config: config, logger: GetLogger()}
}

func (dm *defaultDatabaseManager) isSQLite() bool {
	return drivers[dm.config.Type].driverName == sqliteshim.ShimName
}

// isMemory reports a private in-memory SQLite database, which lives only as
// long as its pool.
func (dm *defaultDatabaseManager) isMemory() bool {
	return dm.isSQLite() && (dm.config.DBName == "" || dm.config.DBName == MemoryDBName)
}

// Connect opens the pool, verifies it with a ping and starts the health
// monitor. It is a no-op on a connected manager.
func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db != nil {
		return nil
	}

	db, err := dm.open(ctx)
	if err != nil {
		return err
	}
	dm.db = db

	if dm.config.HealthCheckInterval > 0 && dm.stopMonitor == nil {
		monitorCtx, cancel := context.WithCancel(context.Background())
		dm.stopMonitor = cancel
		go dm.monitor(monitorCtx)
	}

	dm.logger.Info("Database connected", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

func (dm *defaultDatabaseManager) open(ctx context.Context) (*bun.DB, error) {
	spec, ok := drivers[dm.config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}

	sqlDB, err := sql.Open(spec.driverName, spec.dsn(dm.config))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	dm.configurePool(sqlDB)

	db := bun.NewDB(sqlDB, spec.dialect())
	db.RegisterModel(RegisteredModelInstances()...)
	if _, ok := os.LookupEnv("BUNDEBUG"); ok {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.FromEnv("BUNDEBUG")))
	}
	if dm.config.EnableQueryLog || dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewQueryLogHook(dm.logger, dm.config.EnableQueryLog, dm.config.SlowQueryTime))
	}

	pingCtx, cancel := context.WithTimeout(ctx, cmp.Or(dm.config.ConnectTimeout, 30*time.Second))
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}
	if dm.isSQLite() {
		if _, err := db.ExecContext(pingCtx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

func (dm *defaultDatabaseManager) configurePool(sqlDB *sql.DB) {
	// SQLite pragmas are per connection and an in-memory database lives only
	// as long as its connection, so keep exactly one that never expires.
	if dm.isSQLite() {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
}

// Disconnect stops the health monitor and closes the pool.
func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.stopMonitor != nil {
		dm.stopMonitor()
		dm.stopMonitor = nil
	}
	if dm.db == nil {
		return nil
	}

	err := dm.db.Close()
	dm.db = nil
	if err != nil {
		dm.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	dm.logger.Info("Database connection closed")
	return nil
}

// ErrMemoryReconnect is returned by Reconnect for an in-memory SQLite
// database: a new pool would open an empty database.
var ErrMemoryReconnect = errors.New("in-memory sqlite database cannot be reconnected")

// Reconnect replaces the pool and keeps the health monitor running.
func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	if dm.isMemory() {
		return ErrMemoryReconnect
	}
	dm.logger.Info("Attempting to reconnect to the database")

	dm.mu.Lock()
	old := dm.db
	dm.db = nil
	dm.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			dm.logger.Warn("Error closing previous connection", "error", err)
		}
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	if db := dm.GetDB(); db != nil {
		return db.DB
	}
	return nil
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}

	db := dm.GetDB()
	if db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	err := db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	stats := db.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (dm *defaultDatabaseManager) monitor(ctx context.Context) {
	ticker := time.NewTicker(dm.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		status := dm.HealthCheck(checkCtx)
		cancel()

		if status.Healthy {
			dm.failures = 0
			continue
		}
		dm.logger.Warn("Database health check failed", "error", status.LastError)
		if dm.config.EnableReconnect && !dm.isMemory() {
			dm.tryReconnect(ctx)
		}
	}
}

func (dm *defaultDatabaseManager) tryReconnect(ctx context.Context) {
	if dm.failures >= dm.config.MaxReconnectTries {
		return
	}
	dm.failures++

	select {
	case <-ctx.Done():
		return
	case <-time.After(dm.config.ReconnectInterval):
	}

	connectCtx, cancel := context.WithTimeout(ctx, cmp.Or(dm.config.ConnectTimeout, 30*time.Second))
	defer cancel()

	if err := dm.Reconnect(connectCtx); err != nil {
		dm.logger.Error("Reconnect failed", "error", err, "try", dm.failures)
		if dm.failures == dm.config.MaxReconnectTries {
			dm.logger.Error("Max reconnect attempts reached", "tries", dm.failures)
		}
		return
	}
	dm.failures = 0
	dm.logger.Info("Reconnect succeeded")
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	db := dm.GetDB()
	if db == nil {
		return &DBStats{}
	}

	stats := db.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context, cfg *Config) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, dm.logger, cfg).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}

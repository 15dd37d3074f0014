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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = ":memory:"
	cfg.HealthCheckInterval = 0
	cfg.SlowQueryTime = 0
	return cfg
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	manager := NewDatabaseManager(memoryConfig())
	require.NoError(t, manager.Connect(ctx))
	require.NoError(t, manager.Connect(ctx))

	require.NotNil(t, manager.GetDB())
	require.NotNil(t, manager.GetSQLDB())
	assert.NoError(t, manager.Ping(ctx))

	status := manager.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, manager.GetStats().MaxOpenConns)

	s, err := manager.Sessions().OpenSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	require.NoError(t, s.Close())

	require.NoError(t, manager.Reconnect(ctx))
	assert.NoError(t, manager.Ping(ctx))

	require.NoError(t, manager.Disconnect())
	assert.Nil(t, manager.GetDB())
	assert.Error(t, manager.Ping(ctx))
	assert.False(t, manager.HealthCheck(ctx).Healthy)
	assert.Equal(t, &DBStats{}, manager.GetStats())

	_, err = manager.Sessions().OpenSession(ctx)
	assert.Error(t, err)
}

func TestManagerUnsupportedType(t *testing.T) {
	cfg := memoryConfig()
	cfg.Type = "oracle"
	err := NewDatabaseManager(cfg).Connect(context.Background())
	assert.ErrorContains(t, err, "unsupported database type: oracle")
}

func TestSQLiteDSN(t *testing.T) {
	tests := map[string]string{
		"":                  ":memory:",
		":memory:":          ":memory:",
		"app":               "app.db",
		"data/app.db":       "data/app.db",
		"file:app?mode=rwc": "file:app?mode=rwc",
	}
	for name, want := range tests {
		assert.Equal(t, want, sqliteDSN(name), name)
	}
}

func TestFactoryValidatesType(t *testing.T) {
	f := NewDatabaseFactory()
	_, err := f.CreateFromConfig(nil)
	assert.Error(t, err)

	cfg := memoryConfig()
	cfg.Type = "mssql"
	_, err = f.CreateFromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported database type")

	assert.Error(t, f.InitializeDatabase(context.Background()))
	assert.Nil(t, f.GetDB())
	assert.Nil(t, f.Sessions())
	assert.NotEmpty(t, f.GetHealthStatus(context.Background()).LastError)
	assert.NoError(t, f.Close())
}

func TestFactoryEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", ":memory:")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("DB_ENABLE_RECONNECT", "false")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := memoryConfig()
	cfg.DBName = "ignored"
	f := NewDatabaseFactory()
	_, err := f.CreateFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBName)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.ConnMaxLifetime)
	assert.False(t, cfg.EnableReconnect)
	assert.True(t, cfg.EnableQueryLog)

	require.NoError(t, f.InitializeDatabase(context.Background()))
	defer func() { _ = f.Close() }()
	assert.True(t, f.GetHealthStatus(context.Background()).Healthy)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.yaml")
	data := []byte(`connection:
  type: postgres
  host: 127.0.0.1
  port: 5432
  dbname: shop
  max_open_conns: 20
  slow_query_time: 500ms
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	c := cfg.ConfigLoader().ConnectionConfig
	assert.Equal(t, "postgres", c.Type)
	assert.Equal(t, 5432, c.Port)
	assert.Equal(t, "shop", c.DBName)
	assert.Equal(t, 20, c.MaxOpenConns)
	assert.Equal(t, 500*time.Millisecond, c.SlowQueryTime)
	assert.Equal(t, 10, c.MaxIdleConns)
	assert.Equal(t, "utf8mb4", c.Charset)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("connection: [1, 2"), 0o600))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestGlobalDatabase(t *testing.T) {
	ctx := context.Background()
	_, err := GetSessionFactory().OpenSession(ctx)
	assert.ErrorContains(t, err, "database not initialized")
	assert.False(t, GetHealthStatus(ctx).Healthy)

	_, err = InitDB(nil)
	assert.Error(t, err)

	db, err := InitDB(&Config{ConnectionConfig: *memoryConfig()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })

	assert.Same(t, db, GetDB())
	assert.NotNil(t, GetDatabaseManager())
	assert.True(t, GetHealthStatus(ctx).Healthy)
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	s, err := GetSessionFactory().OpenSession(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.NoError(t, CloseDB())
}

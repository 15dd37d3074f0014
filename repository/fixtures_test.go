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

package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tomoncle/basestore/database"
	"github.com/tomoncle/basestore/types"
)

type Widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Code  string `bun:"code,notnull,unique"`
	Name  string `bun:"name"`
	Price int    `bun:"price"`
}

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID      int64            `bun:"id,pk,autoincrement"`
	Name    string           `bun:"name"`
	Profile types.JsonObject `bun:"profile,type:json"`
	Books   []*Book          `bun:"rel:has-many,join:id=author_id"`
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID       int64   `bun:"id,pk,autoincrement"`
	AuthorID int64   `bun:"author_id"`
	Title    string  `bun:"title"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id"`
}

// Ghost has no table.
type Ghost struct {
	ID   int64 `bun:"id,pk,autoincrement"`
	Name string
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*Widget)(nil), (*Author)(nil), (*Book)(nil)} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func newObservedLogger() (database.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return database.NewZapLogger(zap.New(core)), logs
}

type countingSessions struct {
	inner  database.SessionFactory
	opened int
	closed int
}

func (c *countingSessions) OpenSession(ctx context.Context) (database.Session, error) {
	s, err := c.inner.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	c.opened++
	return &countedSession{Session: s, counter: c}, nil
}

type countedSession struct {
	database.Session
	counter *countingSessions
	done    bool
}

func (s *countedSession) Close() error {
	if !s.done {
		s.done = true
		s.counter.closed++
	}
	return s.Session.Close()
}

func seedWidgets(t *testing.T, repo Repository[Widget], widgets ...*Widget) []*Widget {
	t.Helper()
	added, err := repo.AddAll(context.Background(), widgets)
	require.NoError(t, err)
	return added
}

func sampleWidgets() []*Widget {
	return []*Widget{
		{Code: "a", Name: "Anvil", Price: 5},
		{Code: "b", Name: "Bolt", Price: 15},
		{Code: "c", Name: "Crank", Price: 25},
	}
}

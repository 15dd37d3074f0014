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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrSessionClosed is returned when a session is used after Close.
var ErrSessionClosed = errors.New("database: session already closed")

// Session is a short-lived unit of work owned by exactly one operation. It is
// not safe for concurrent use. Close must be called on every exit path; it
// discards uncommitted work and is a no-op after Commit or a previous Close.
type Session interface {
	ID() string
	// IDB is the handle queries of this session must go through.
	IDB() bun.IDB
	Commit() error
	Close() error
}

// SessionFactory hands out fresh sessions. Implementations must never return
// the same session twice.
type SessionFactory interface {
	OpenSession(ctx context.Context) (Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(ctx context.Context) (Session, error)

func (f SessionFactoryFunc) OpenSession(ctx context.Context) (Session, error) { return f(ctx) }

type txSessionFactory struct {
	db     *bun.DB
	opts   *sql.TxOptions
	logger Logger
}

// NewSessionFactory returns a factory beginning one transaction per session on
// db. opts may be nil for the driver defaults.
func NewSessionFactory(db *bun.DB, opts *sql.TxOptions, logger Logger) SessionFactory {
	if logger == nil {
		logger = GetLogger()
	}
	return &txSessionFactory{db: db, opts: opts, logger: logger}
}

func (f *txSessionFactory) OpenSession(ctx context.Context) (Session, error) {
	if f.db == nil {
		return nil, fmt.Errorf("open session: database not initialized")
	}
	tx, err := f.db.BeginTx(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s := &txSession{
		id:      uuid.NewString(),
		tx:      tx,
		logger:  f.logger,
		started: time.Now(),
	}
	f.logger.Debug("Session opened", "session", s.id)
	return s, nil
}

type txSession struct {
	id        string
	tx        bun.Tx
	logger    Logger
	started   time.Time
	committed bool
	closed    bool
}

func (s *txSession) ID() string { return s.id }

func (s *txSession) IDB() bun.IDB { return &s.tx }

func (s *txSession) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.committed {
		return nil
	}
	// the transaction is finished whether or not the commit succeeds
	s.committed = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit session %s: %w", s.id, err)
	}
	return nil
}

func (s *txSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer func() {
		s.logger.Debug("Session closed", "session", s.id, "committed", s.committed, "elapsed", time.Since(s.started))
	}()
	if s.committed {
		return nil
	}
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback session %s: %w", s.id, err)
	}
	return nil
}

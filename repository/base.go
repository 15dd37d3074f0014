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

	"github.com/uptrace/bun"

	"github.com/tomoncle/basestore/database"
	"github.com/tomoncle/basestore/types"
)

type baseRepositoryImpl[T any] struct {
	checked *checkedRepositoryImpl[T]
}

// NewRepository returns a generic repository opening one transaction per
// operation on db.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return NewRepositoryWithSessions[T](database.NewSessionFactory(db, nil, nil), nil)
}

// NewRepositoryWithSessions returns a generic repository drawing its sessions
// from sessions. A nil logger selects database.GetLogger().
func NewRepositoryWithSessions[T any](sessions database.SessionFactory, logger database.Logger) Repository[T] {
	return &baseRepositoryImpl[T]{checked: newCheckedRepository[T](sessions, logger)}
}

// NewRepositoryWithOptions is NewRepository with explicit transaction options
// for every session.
func NewRepositoryWithOptions[T any](db *bun.DB, opts *sql.TxOptions, logger database.Logger) Repository[T] {
	return NewRepositoryWithSessions[T](database.NewSessionFactory(db, opts, logger), logger)
}

func (r *baseRepositoryImpl[T]) Checked() CheckedRepository[T] { return r.checked }

// report logs a fault that is not returned to the caller.
func (r *baseRepositoryImpl[T]) report(err error) {
	f, ok := AsFault(err)
	if !ok {
		r.checked.logger.Error("Repository operation failed", "entity", r.checked.entity, "error", err)
		return
	}
	r.checked.logger.Error("Repository operation failed",
		"op", f.Op,
		"entity", f.Entity,
		"kind", f.Kind.String(),
		"session", f.Session,
		"error", f.Err,
	)
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, filter *types.QueryFilter) []*T {
	entities, err := r.checked.Query(ctx, filter)
	if err != nil {
		r.report(err)
		return make([]*T, 0)
	}
	return entities
}

func (r *baseRepositoryImpl[T]) QueryWithRelations(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error) {
	return r.checked.Query(ctx, filter, relations...)
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) int {
	if filter == nil {
		return 0
	}
	count, err := r.checked.Count(ctx, filter)
	if err != nil {
		r.report(err)
		return CountFault
	}
	return count
}

func (r *baseRepositoryImpl[T]) FirstOrDefault(ctx context.Context, filter *types.QueryFilter) *T {
	entity, err := r.checked.FirstOrDefault(ctx, filter)
	if err != nil {
		r.report(err)
		return nil
	}
	return entity
}

func (r *baseRepositoryImpl[T]) Add(ctx context.Context, entity *T) (*T, error) {
	return r.checked.Add(ctx, entity)
}

func (r *baseRepositoryImpl[T]) AddAll(ctx context.Context, entities []*T) ([]*T, error) {
	return r.checked.AddAll(ctx, entities)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T, idFilter *types.QueryFilter) (*T, error) {
	return r.checked.Update(ctx, entity, idFilter)
}

func (r *baseRepositoryImpl[T]) UpdateAll(ctx context.Context, entities []*T, keyProperties []string) ([]*T, error) {
	return r.checked.UpdateAll(ctx, entities, keyProperties)
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, filter *types.QueryFilter, deleteMany bool) (bool, error) {
	return r.checked.Delete(ctx, filter, deleteMany)
}

func (r *baseRepositoryImpl[T]) Remove(ctx context.Context, entity *T) {
	if err := r.checked.Remove(ctx, entity); err != nil {
		r.report(err)
	}
}

func (r *baseRepositoryImpl[T]) Insert(ctx context.Context, entity *T) *T {
	added, err := r.checked.Add(ctx, entity)
	if err != nil {
		r.report(err)
		return nil
	}
	return added
}

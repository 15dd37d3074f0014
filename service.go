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

package basestore

import (
	"context"

	"github.com/tomoncle/basestore/database"
	"github.com/tomoncle/basestore/repository"
	"github.com/tomoncle/basestore/types"
)

// New returns a repository bound to the global database. Sessions are
// resolved per operation, so it may be created before database.InitDB.
func New[T any]() repository.Repository[T] {
	return repository.NewRepositoryWithSessions[T](database.GetSessionFactory(), nil)
}

// NewChecked is New with uniform error returns.
func NewChecked[T any]() repository.CheckedRepository[T] {
	return New[T]().Checked()
}

// Service is a thin facade over the checked repository for application code.
type Service[T any] interface {
	// Get returns the first entity matching filter, nil when none does.
	Get(ctx context.Context, filter *types.QueryFilter) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error)

	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// Update overwrites the entity matching idFilter.
	Update(ctx context.Context, model *T, idFilter *types.QueryFilter) (*T, error)

	// Delete removes every entity matching filter.
	Delete(ctx context.Context, filter *types.QueryFilter) error

	// Remove deletes model by primary key.
	Remove(ctx context.Context, model *T) error
}

type baseServiceImpl[T any] struct {
	repo repository.CheckedRepository[T]
}

// NewService returns a Service backed by the global database connection.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{repo: NewChecked[T]()}
}

// NewServiceWithRepository returns a Service backed by repo.
func NewServiceWithRepository[T any](repo repository.CheckedRepository[T]) Service[T] {
	return &baseServiceImpl[T]{repo: repo}
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, filter *types.QueryFilter) (*T, error) {
	return s.repo.FirstOrDefault(ctx, filter)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.repo.Query(ctx, nil)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error) {
	return s.repo.Query(ctx, filter, relations...)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	return s.repo.Count(ctx, filter)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.repo.Page(ctx, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	_, err := s.repo.AddAll(ctx, model)
	return err
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	return s.repo.Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T, idFilter *types.QueryFilter) (*T, error) {
	return s.repo.Update(ctx, model, idFilter)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, filter *types.QueryFilter) error {
	_, err := s.repo.Delete(ctx, filter, true)
	return err
}

func (s *baseServiceImpl[T]) Remove(ctx context.Context, model *T) error {
	return s.repo.Remove(ctx, model)
}

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
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/basestore/database"
	"github.com/tomoncle/basestore/types"
)

type checkedRepositoryImpl[T any] struct {
	sessions database.SessionFactory
	logger   database.Logger
	typ      reflect.Type
	entity   string
}

// NewCheckedRepository returns a repository reporting every failure as a
// *Fault. A nil logger selects database.GetLogger().
func NewCheckedRepository[T any](sessions database.SessionFactory, logger database.Logger) CheckedRepository[T] {
	return newCheckedRepository[T](sessions, logger)
}

func newCheckedRepository[T any](sessions database.SessionFactory, logger database.Logger) *checkedRepositoryImpl[T] {
	if logger == nil {
		logger = database.GetLogger()
	}
	typ := reflect.TypeFor[T]()
	return &checkedRepositoryImpl[T]{
		sessions: sessions,
		logger:   logger,
		typ:      typ,
		entity:   typ.Name(),
	}
}

type whereQuery[Q any] interface {
	Where(query string, args ...interface{}) Q
}

func applyFilter[Q whereQuery[Q]](q Q, filter *types.QueryFilter) Q {
	if filter.IsEmpty() {
		return q
	}
	return q.Where(filter.Schema, filter.Args...)
}

// run executes fn inside a fresh session that is always closed before run
// returns. When commit is set the session is committed after fn succeeds.
func (r *checkedRepositoryImpl[T]) run(ctx context.Context, op string, commit bool, fn func(db bun.IDB) error) (err error) {
	if r.sessions == nil {
		return r.fault(op, "", errors.New("no session factory"))
	}
	s, err := r.sessions.OpenSession(ctx)
	if err != nil {
		return r.fault(op, "", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = r.fault(op, s.ID(), cerr)
		}
	}()

	if err = fn(s.IDB()); err != nil {
		return r.fault(op, s.ID(), err)
	}
	if commit {
		if err = s.Commit(); err != nil {
			return r.fault(op, s.ID(), err)
		}
	}
	r.logger.Debug("Repository operation completed", "op", op, "entity", r.entity, "session", s.ID())
	return nil
}

func (r *checkedRepositoryImpl[T]) fault(op, session string, err error) error {
	return newFault(op, r.entity, session, err)
}

func (r *checkedRepositoryImpl[T]) table(db bun.IDB) *schema.Table {
	return db.Dialect().Tables().Get(r.typ)
}

func (r *checkedRepositoryImpl[T]) Query(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.run(ctx, "Query", false, func(db bun.IDB) error {
		q := db.NewSelect().Model(&entities)
		table := r.table(db)
		for _, name := range relations {
			root, _, _ := strings.Cut(name, ".")
			if _, ok := table.Relations[root]; !ok {
				return invalidArgument("%s has no relation %q", r.entity, name)
			}
			q = q.Relation(name)
		}
		return applyFilter(q, filter).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *checkedRepositoryImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	var count int
	err := r.run(ctx, "Count", false, func(db bun.IDB) (err error) {
		count, err = applyFilter(db.NewSelect().Model((*T)(nil)), filter).Count(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *checkedRepositoryImpl[T]) FirstOrDefault(ctx context.Context, filter *types.QueryFilter) (*T, error) {
	var found *T
	err := r.run(ctx, "FirstOrDefault", false, func(db bun.IDB) error {
		entity, err := r.first(ctx, db, filter)
		found = entity
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// first returns nil, nil when nothing matches filter.
func (r *checkedRepositoryImpl[T]) first(ctx context.Context, db bun.IDB, filter *types.QueryFilter) (*T, error) {
	entity := new(T)
	err := applyFilter(db.NewSelect().Model(entity), filter).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func insert(ctx context.Context, db bun.IDB, model interface{}) error {
	q := db.NewInsert().Model(model)
	if db.Dialect().Features().Has(feature.InsertReturning) {
		q = q.Returning("*")
	}
	_, err := q.Exec(ctx)
	return err
}

func (r *checkedRepositoryImpl[T]) Add(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, r.fault("Add", "", invalidArgument("nil %s", r.entity))
	}
	err := r.run(ctx, "Add", true, func(db bun.IDB) error {
		return insert(ctx, db, entity)
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *checkedRepositoryImpl[T]) AddAll(ctx context.Context, entities []*T) ([]*T, error) {
	if len(entities) == 0 {
		return entities, nil
	}
	if err := r.checkNoNil("AddAll", entities); err != nil {
		return nil, err
	}
	err := r.run(ctx, "AddAll", true, func(db bun.IDB) error {
		return insert(ctx, db, &entities)
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *checkedRepositoryImpl[T]) checkNoNil(op string, entities []*T) error {
	for i, e := range entities {
		if e == nil {
			return r.fault(op, "", invalidArgument("nil %s at index %d", r.entity, i))
		}
	}
	return nil
}

func (r *checkedRepositoryImpl[T]) Update(ctx context.Context, entity *T, idFilter *types.QueryFilter) (*T, error) {
	if entity == nil {
		return nil, r.fault("Update", "", invalidArgument("nil %s", r.entity))
	}
	if idFilter.IsEmpty() {
		return nil, r.fault("Update", "", invalidArgument("update of %s requires an id filter", r.entity))
	}
	err := r.run(ctx, "Update", true, func(db bun.IDB) error {
		table := r.table(db)
		if len(table.PKs) == 0 {
			return invalidArgument("%s has no primary key", r.entity)
		}
		existing, err := r.first(ctx, db, idFilter)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: no %s matches %s", ErrNotFound, r.entity, idFilter)
		}

		src, dst := reflect.ValueOf(existing).Elem(), reflect.ValueOf(entity).Elem()
		for _, pk := range table.PKs {
			pk.Value(dst).Set(pk.Value(src))
		}
		if _, err := db.NewUpdate().Model(entity).WherePK().Exec(ctx); err != nil {
			return err
		}
		return db.NewSelect().Model(entity).WherePK().Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *checkedRepositoryImpl[T]) Delete(ctx context.Context, filter *types.QueryFilter, deleteMany bool) (bool, error) {
	if filter.IsEmpty() {
		return false, r.fault("Delete", "", invalidArgument("delete of %s requires a filter", r.entity))
	}
	var deleted bool
	err := r.run(ctx, "Delete", true, func(db bun.IDB) error {
		if deleteMany {
			if _, err := applyFilter(db.NewDelete().Model((*T)(nil)), filter).Exec(ctx); err != nil {
				return err
			}
			deleted = true
			return nil
		}

		target, err := r.first(ctx, db, filter)
		if err != nil || target == nil {
			return err
		}
		if _, err := db.NewDelete().Model(target).WherePK().Exec(ctx); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *checkedRepositoryImpl[T]) Remove(ctx context.Context, entity *T) error {
	if entity == nil {
		return r.fault("Remove", "", invalidArgument("nil %s", r.entity))
	}
	return r.run(ctx, "Remove", true, func(db bun.IDB) error {
		res, err := db.NewDelete().Model(entity).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s was already removed", ErrNotFound, r.entity)
		}
		return nil
	})
}

func (r *checkedRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	err := r.run(ctx, "Page", false, func(db bun.IDB) error {
		entities := make([]*T, 0)
		query := applyFilter(db.NewSelect().Model(&entities), pageRequest.GetFilter())
		total, err := query.Count(ctx)
		if err != nil || total == 0 {
			return err
		}
		err = query.
			Offset(pageRequest.GetOffset()).
			Limit(pageRequest.GetPageSize()).
			Order(pageRequest.GetOrders()...).
			Scan(ctx)
		if err != nil {
			return err
		}
		pagination.Total = total
		pagination.Items = entities
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pagination, nil
}

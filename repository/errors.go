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
	"errors"
	"fmt"

	"github.com/tomoncle/basestore/database"
	"github.com/tomoncle/basestore/types"
)

var (
	// ErrNotFound is wrapped by faults raised when an operation requires a
	// matching record and there is none.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidArgument is wrapped by faults raised before reaching the
	// backing store.
	ErrInvalidArgument = errors.New("invalid argument")
)

// FaultKind is a coarse classification of backing store faults.
type FaultKind int

const (
	FaultUnknown FaultKind = iota
	FaultNotFound
	FaultInvalidArgument
	FaultDuplicate
	FaultConstraint
	FaultSchema
	FaultConnection
	FaultCanceled
)

var _ types.BaseEnum = FaultUnknown

var faultKinds = []types.EnumValue{
	{Name: "unknown", Desc: "unclassified backing store fault"},
	{Name: "not_found", Desc: "no record matched"},
	{Name: "invalid_argument", Desc: "rejected before reaching the backing store"},
	{Name: "duplicate", Desc: "unique constraint violated"},
	{Name: "constraint", Desc: "not null, foreign key, check or type constraint violated"},
	{Name: "schema", Desc: "table, column or index missing, ambiguous or already present"},
	{Name: "connection", Desc: "connection to the backing store failed"},
	{Name: "canceled", Desc: "operation canceled or timed out"},
}

func (k FaultKind) IsValid() bool {
	_, ok := types.LookupEnum(faultKinds, int(k))
	return ok
}

func (k FaultKind) Number() int {
	if !k.IsValid() {
		return types.IllegalValue
	}
	return int(k)
}

func (k FaultKind) Name() string {
	v, _ := types.LookupEnum(faultKinds, int(k))
	return v.Name
}

func (k FaultKind) String() string { return k.Name() }

func (k FaultKind) Desc() string {
	v, _ := types.LookupEnum(faultKinds, int(k))
	return v.Desc
}

// Fault describes a failed repository operation.
type Fault struct {
	Op      string
	Entity  string
	Session string
	Kind    FaultKind
	Err     error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("repository: %s.%s: %s: %v", f.Entity, f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// AsFault returns the *Fault in err's chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// KindOf returns the kind of the fault in err's chain, FaultUnknown otherwise.
func KindOf(err error) FaultKind {
	if f, ok := AsFault(err); ok {
		return f.Kind
	}
	return FaultUnknown
}

func IsNotFound(err error) bool { return KindOf(err) == FaultNotFound }

func newFault(op, entity, session string, err error) *Fault {
	if f, ok := AsFault(err); ok {
		if f.Session == "" {
			f.Session = session
		}
		return f
	}
	return &Fault{Op: op, Entity: entity, Session: session, Kind: classify(err), Err: err}
}

func classify(err error) FaultKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return FaultNotFound
	case errors.Is(err, ErrInvalidArgument):
		return FaultInvalidArgument
	}
	switch database.ClassifySQLError(err) {
	case database.NoRowsErr:
		return FaultNotFound
	case database.DuplicateKeyErr:
		return FaultDuplicate
	case database.NotNullViolationErr, database.ForeignKeyViolationErr, database.CheckConstraintViolationErr,
		database.DataTruncatedErr, database.InvalidTypeCastErr:
		return FaultConstraint
	case database.NoTableErr, database.ExistTableErr, database.NoColumnErr, database.ExistColumnErr,
		database.NoIndexErr, database.ExistIndexErr, database.AmbiguousColumnErr:
		return FaultSchema
	case database.ConnectionErr:
		return FaultConnection
	case database.CanceledErr:
		return FaultCanceled
	default:
		return FaultUnknown
	}
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

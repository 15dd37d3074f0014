// Package repository provides a generic, entity-agnostic repository on top of
// Bun. Every operation runs in its own database session.
//
// Repository keeps a lenient contract: some operations swallow backing store
// faults, log them and return an empty, nil or CountFault result. Checked
// exposes the same operations with uniform (value, error) returns where every
// error is a *Fault.
package repository

// Package store is the data core: an account directory, a friend-request
// state machine, a per-pair message log and a visibility-scoped media store,
// all persisted through a single gorm handle. Callers construct a Directory
// and poll it; the package itself never logs and never caches across calls.
package store

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports malformed input. Nothing is persisted.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}

// ConflictError reports a storage-level uniqueness violation.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// DuplicateError reports that a friend request is already active
// (pending or accepted) for the pair, in either direction.
type DuplicateError struct{}

func (e *DuplicateError) Error() string {
	return "friend request already active"
}

// SelfReferenceError reports a friend request addressed to its own sender.
type SelfReferenceError struct{}

func (e *SelfReferenceError) Error() string {
	return "cannot send a friend request to yourself"
}

// TooLargeError reports media content over the size cap.
type TooLargeError struct {
	Size int64
	Max  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("content size %d exceeds limit %d", e.Size, e.Max)
}

// PermissionError reports an ownership or authorization mismatch on a
// mutating operation.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return "not permitted: " + e.Action
}

// StorageError wraps a storage-engine failure. The attempted transaction has
// not committed; there is no partial effect to clean up.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr wraps a driver error unless it is already a taxonomy error.
func storageErr(op string, err error) error {
	var ve *ValidationError
	var ce *ConflictError
	var nf *NotFoundError
	var de *DuplicateError
	var se *SelfReferenceError
	var tl *TooLargeError
	var pe *PermissionError
	if errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &nf) ||
		errors.As(err, &de) || errors.As(err, &se) || errors.As(err, &tl) ||
		errors.As(err, &pe) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// uniqueViolationField maps a driver duplicate-key error to the offending
// column. Both the SQLite and MySQL drivers mention the column or index name
// in the message.
func uniqueViolationField(err error) (string, bool) {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
		return "", false
	}
	for _, field := range []string{"username", "phone", "email"} {
		if strings.Contains(msg, field) {
			return field, true
		}
	}
	return "record", true
}

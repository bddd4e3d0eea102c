package datastore

import (
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
)

// Sentinel errors returned by the store.
var (
	ErrNotInitialized = errors.NewStd("database connection is not initialized")
	ErrUnknownTable   = errors.NewStd("unknown table")
	ErrUnknownColumn  = errors.NewStd("unknown column")
	ErrRowWidth       = errors.NewStd("row width does not match column count")
	ErrOrphanRows     = errors.NewStd("rows reference missing artifact metadata")
	ErrNotReadOnly    = errors.NewStd("only read statements are allowed")
)

// dbError creates a properly categorized database error with context
func dbError(err error, operation string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(driverCategory(err, errors.CategoryDatabase)).
		Context("operation", operation)

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// validationError creates a validation error wrapping a sentinel
func validationError(sentinel error, format string, args ...any) error {
	return errors.New(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))).
		Component("datastore").
		Category(errors.CategoryValidation).
		Build()
}

// driverCategory refines fallback using driver error codes.
func driverCategory(err error, fallback errors.ErrorCategory) errors.ErrorCategory {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errors.CategoryTimeout
		case sqlite3.ErrConstraint:
			return errors.CategoryConflict
		}
		return fallback
	}

	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213: // lock wait timeout, deadlock
			return errors.CategoryTimeout
		case 1062, 1451, 1452: // duplicate entry, foreign key violations
			return errors.CategoryConflict
		case 1146: // table doesn't exist
			return errors.CategoryNotFound
		}
	}
	return fallback
}

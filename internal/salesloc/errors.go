package salesloc

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/salesboard/salesboard/internal/platform/httpx"
)

// ErrInvalidFilter marks criteria that cannot be turned into a query.
var ErrInvalidFilter = errors.New("salesloc: invalid filter")

// ErrQueryFailed marks failures raised while running the aggregation.
var ErrQueryFailed = errors.New("salesloc: query failed")

// FilterError describes which input was rejected.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("salesloc: invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrInvalidFilter and the transport-level validation sentinel.
func (e *FilterError) Is(target error) bool {
	return target == ErrInvalidFilter || target == httpx.ErrValidation
}

func invalid(field, reason string) error {
	return &FilterError{Field: field, Reason: reason}
}

// QueryError wraps a driver error returned while executing a report query.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("salesloc: %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is matches ErrQueryFailed.
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

// SQLState returns the PostgreSQL error code when the driver supplied one.
func (e *QueryError) SQLState() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// UserMessage is a short description safe to show in the page.
func (e *QueryError) UserMessage() string {
	switch e.SQLState() {
	case "22P02":
		return "The fact table contains a quantity or date that cannot be converted."
	case "22007", "22008":
		return "The selected date column contains values that are not dates."
	case "42P01":
		return "The fact table does not exist. Import data or run migrations first."
	case "42703":
		return "The fact table is missing an expected column."
	case "57014":
		return "The query took too long and was cancelled."
	}
	return "The report query failed. Check the database connection and try again."
}

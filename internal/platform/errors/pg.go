package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlState is how the loader treats one Postgres SQLSTATE
type sqlState struct {
	code      ErrorCode
	retryable bool
}

// sqlStates lists the states a batch upsert can run into; any other PgError is ErrorCodeDB
var sqlStates = map[string]sqlState{
	"23505": {code: ErrorCodeDuplicateKey},        // unique_violation
	"23503": {code: ErrorCodeInvalidArgument},     // foreign_key_violation, an entry whose proposition vanished mid-batch
	"23502": {code: ErrorCodeValidation},          // not_null_violation
	"23514": {code: ErrorCodeValidation},          // check_violation
	"22001": {code: ErrorCodeInvalidArgument},     // string_data_right_truncation
	"22P02": {code: ErrorCodeInvalidArgument},     // invalid_text_representation
	"22008": {code: ErrorCodeInvalidArgument},     // datetime_field_overflow
	"40001": {code: ErrorCodeDB, retryable: true}, // serialization_failure
	"40P01": {code: ErrorCodeDB, retryable: true}, // deadlock_detected
	"55P03": {code: ErrorCodeDB, retryable: true}, // lock_not_available, ETL_LOCK_TIMEOUT fired
	"25006": {code: ErrorCodeUnavailable},         // read_only_sql_transaction, failover in progress
	"57P03": {code: ErrorCodeUnavailable},         // cannot_connect_now
	"57P01": {code: ErrorCodeUnavailable},         // admin_shutdown
}

// transientText matches driver errors that lost their SQLSTATE on the way up
var transientText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	ok := stderrs.As(err, &pe)
	return pe, ok
}

// IsSQLState reports whether err carries a PgError with the given SQLSTATE
func IsSQLState(err error, state string) bool {
	pe, ok := pgError(err)
	return ok && pe.Code == state
}

// IsDuplicateKey reports a unique violation anywhere in err's chain
func IsDuplicateKey(err error) bool { return IsSQLState(err, "23505") }

// DBErrorCode classifies a PgError; ok is false when err holds none
func DBErrorCode(err error) (code ErrorCode, ok bool) {
	pe, ok := pgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if s, known := sqlStates[pe.Code]; known {
		return s.code, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a repo error under its classified code, pinning the
// offending column as the field when Postgres reports one. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	out := Wrap(err, code, msg)
	if pe, ok := pgError(err); ok && strings.TrimSpace(pe.ColumnName) != "" {
		return WithField(out, strings.TrimSpace(pe.ColumnName))
	}
	return out
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports a transient database failure: a contention SQLSTATE
// or a driver message naming one. Cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pe, ok := pgError(err); ok {
		return sqlStates[pe.Code].retryable
	}
	msg := strings.ToLower(Root(err).Error())
	for _, s := range transientText {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

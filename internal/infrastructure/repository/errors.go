package repository

import (
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/davidleathers/ledger-insights/internal/domain/errors"
)

// IsConnectionError checks if the error is related to database connectivity
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		// class 08: connection exception
		return strings.HasPrefix(pgErr.Code, "08")
	}

	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset") ||
		strings.Contains(err.Error(), "no connection to the server")
}

// queryError wraps a failed ledger query as DataUnavailable. Only connectivity
// failures are marked retryable.
func queryError(query string, err error) error {
	if err == nil {
		return nil
	}
	appErr := errors.NewDataUnavailableError(query).WithCause(err)
	appErr.Retryable = IsConnectionError(err)
	return appErr
}

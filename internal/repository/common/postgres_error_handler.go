package common

import (
	"context"
	"errors"
	"net"
	"strings"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

// HandlePostgreSQLError converts PostgreSQL-specific errors to appropriate AppError codes.
// Connectivity problems are reported as transient so sweeps retry them.
func HandlePostgreSQLError(err error, operation string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		if isConnectivityError(err) {
			return apperrors.Wrap(err, apperrors.CodeTransient, operation+": database unavailable")
		}
		return apperrors.Wrap(err, apperrors.CodeInternal, operation)
	}

	switch {
	case pgErr.Code == "23505": // UNIQUE_VIOLATION
		return handleUniqueViolation(pgErr, operation)

	case pgErr.Code == "23503": // FOREIGN_KEY_VIOLATION
		return handleForeignKeyViolation(pgErr, operation)

	case pgErr.Code == "23502": // NOT_NULL_VIOLATION
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, operation+": required field is missing")

	case pgErr.Code == "23514": // CHECK_VIOLATION
		return handleCheckViolation(pgErr, operation)

	case pgErr.Code == "42P01": // UNDEFINED_TABLE
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: table not found")

	case pgErr.Code == "42703": // UNDEFINED_COLUMN
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: column not found")

	case strings.HasPrefix(pgErr.Code, "08"): // CONNECTION_EXCEPTION class
		return apperrors.Wrap(err, apperrors.CodeTransient, "database connection error")

	case pgErr.Code == "40001", pgErr.Code == "40P01": // SERIALIZATION_FAILURE, DEADLOCK_DETECTED
		return apperrors.Wrap(err, apperrors.CodeTransient, operation+": transaction conflict")

	case pgErr.Code == "53300", pgErr.Code == "57P01": // TOO_MANY_CONNECTIONS, ADMIN_SHUTDOWN
		return apperrors.Wrap(err, apperrors.CodeTransient, "database temporarily unavailable")

	case pgErr.Code == "28P01", pgErr.Code == "28000": // INVALID_PASSWORD, INVALID_AUTHORIZATION
		return apperrors.Wrap(err, apperrors.CodeConfig, "database rejected credentials")

	default:
		message := "database error (PostgreSQL code: " + pgErr.Code + ")"
		return apperrors.Wrap(err, apperrors.CodeInternal, message)
	}
}

// isConnectivityError detects failures that happen before the server answers
func isConnectivityError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

// handleUniqueViolation provides specific error messages for different unique constraints
func handleUniqueViolation(pgErr *pgconn.PgError, operation string) *apperrors.AppError {
	constraintName := pgErr.ConstraintName

	switch {
	case strings.Contains(constraintName, "record_translations_pkey"):
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "translation for this language already exists")
	case strings.Contains(constraintName, "records_pkey"):
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "record with this ID already exists")
	default:
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, operation+": resource already exists")
	}
}

// handleForeignKeyViolation provides specific error messages for foreign key constraints
func handleForeignKeyViolation(pgErr *pgconn.PgError, operation string) *apperrors.AppError {
	if strings.Contains(pgErr.ConstraintName, "record_id") {
		return apperrors.Wrap(pgErr, apperrors.CodeDependency, "referenced record does not exist")
	}
	return apperrors.Wrap(pgErr, apperrors.CodeDependency, operation+": referenced resource does not exist")
}

// handleCheckViolation maps the translation audio constraints to invariant violations
func handleCheckViolation(pgErr *pgconn.PgError, operation string) *apperrors.AppError {
	switch pgErr.ConstraintName {
	case "record_translations_audio_present", "record_translations_duration_pairing":
		return apperrors.Wrap(pgErr, apperrors.CodeInvariant, operation+": translation audio invariant violated ("+pgErr.ConstraintName+")")
	default:
		return apperrors.Wrap(pgErr, apperrors.CodeInvalidArg, "data violates check constraint")
	}
}

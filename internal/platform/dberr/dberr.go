// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ijaa/alumni/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes the platform reacts to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the
// error type.
//
// # Mapping
//   - pgx.ErrNoRows          -> 404 for the named resource
//   - SQLSTATE 23505 (unique)-> 409 Conflict
//   - SQLSTATE 23503 (fkey)  -> 409 Conflict
//   - anything else          -> wrapped internal error tagged with action
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case codeUniqueViolation:
			return apperr.Conflict(resource + " already exists")
		case codeForeignKeyViolation:
			return apperr.Conflict(resource + " is referenced by other records")
		}
	}

	return fmt.Errorf("%s_failed: %w", action, err)
}

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	dErrors "govportal/pkg/domain-errors"
)

const saveFailedMsg = "Failed to save submission"

// SQLSTATE codes that mean the table or a column is not there.
var schemaMissingStates = map[string]bool{
	"42P01": true, // undefined_table
	"42703": true, // undefined_column
	"3F000": true, // invalid_schema_name
}

const insufficientPrivilege = "42501"

// classify maps a datastore failure onto the persistence subkinds.
func classify(err error, table string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case schemaMissingStates[pgErr.Code]:
			return dErrors.Wrap(err, dErrors.CodeSchemaMissing, saveFailedMsg).
				WithHint("The " + table + " table or one of its columns does not exist. Apply the database schema before accepting submissions.")
		case pgErr.Code == insufficientPrivilege:
			return dErrors.Wrap(err, dErrors.CodePermissionDenied, saveFailedMsg).
				WithHint("The database role may not insert into " + table + ". Check its grants and row-level security policies.")
		}
	}
	return dErrors.Wrap(err, dErrors.CodePersistenceFailed, saveFailedMsg)
}

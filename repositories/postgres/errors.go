package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/readers-hub/repositories"
)

// PostgreSQL error codes we translate
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// uniqueFields maps unique constraint names to the field they protect
var uniqueFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// mapError translates driver errors into repository errors, prefixing op.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			field, ok := uniqueFields[pqErr.Constraint]
			if !ok {
				field = pqErr.Constraint
			}
			return fmt.Errorf("%s: %w", op, &repositories.DuplicateError{Field: field})
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requireAffected returns ErrNotFound when an UPDATE or DELETE touched no rows
func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	return nil
}

// uuidArray encodes ids for an "= ANY($n::uuid[])" parameter
func uuidArray(ids []uuid.UUID) interface{} {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return pq.Array(out)
}

// likePattern escapes LIKE metacharacters and wraps q in wildcards
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func clampList(opts repositories.ListOptions) repositories.ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}

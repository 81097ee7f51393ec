package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const (
	// postgresUniqueViolation is the SQLSTATE for unique_violation.
	postgresUniqueViolation = "23505"
	// mysqlDuplicateEntry is the MySQL error number for ER_DUP_ENTRY.
	mysqlDuplicateEntry = 1062
)

// IsUniqueViolation reports whether err is a unique constraint violation raised by
// PostgreSQL or MySQL. Repositories use it to translate insert races into domain errors.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == postgresUniqueViolation
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	return false
}

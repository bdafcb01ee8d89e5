// Package postgres implements the domain repositories on gorm and PostgreSQL.
package postgres

import (
	"errors"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
	codeLockNotAvailable   = "55P03"
)

// translate maps storage errors onto domain sentinels. notFound and duplicate may be nil,
// in which case those errors pass through unchanged.
func translate(err, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if duplicate != nil {
				return duplicate
			}
		case codeExclusionViolation, codeLockNotAvailable:
			// the calendar backstop or a doctor lock we could not get in time
			return appointment.ErrSlotUnavailable
		}
	}
	return err
}

func offset(page, pageSize int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * pageSize
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

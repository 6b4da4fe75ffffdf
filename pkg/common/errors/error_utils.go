package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// region 数据库错误处理

// WrapGormError 将底层数据库错误转变为业务可识别错误
//   - gorm.ErrRecordNotFound -> ErrNotFound
//   - unique violations (gorm, MySQL 1062, Postgres 23505, SQLite) -> ErrDuplicateEntry
//   - context cancellation is passed through untouched
//   - everything else -> ErrDatabaseInternal, keeping the driver error for logs
func WrapGormError(rawErr error) error {
	if rawErr == nil {
		return nil
	}

	switch {
	case errors.Is(rawErr, context.DeadlineExceeded), errors.Is(rawErr, context.Canceled):
		return rawErr
	case errors.Is(rawErr, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsDuplicateError(rawErr):
		return ErrDuplicateEntry
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(rawErr, &mysqlErr) {
		return fmt.Errorf("%w: mysql %d: %s", ErrDatabaseInternal, mysqlErr.Number, mysqlErr.Message)
	}

	return fmt.Errorf("%w: %w", ErrDatabaseInternal, rawErr)
}

// IsDuplicateError 判断是否为重复记录错误
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateEntry) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}

	// sqlite without error translation
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// endregion

package repository

import (
	"errors"

	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/lib/pq"
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = "23505"

// isUniqueViolation はエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// nullableRole はRoleNoneをNULLとして書き込むための値に変換する。
func nullableRole(role model.Role) interface{} {
	if role == "" || role == model.RoleNone {
		return nil
	}
	return string(role)
}

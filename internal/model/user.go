// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーに付与される権限タグを表す。
type Role string

const (
	// RoleNone は権限なしを表す。永続化時はroleカラム自体をNULLにする。
	RoleNone Role = "none"
	// RoleMember は契約が承認された入居者を表す。
	RoleMember Role = "member"
	// RoleAdmin は管理者を表す。
	RoleAdmin Role = "admin"
)

// ParseRole は文字列をRoleに変換する。
// 空文字列はRoleNoneとして扱い、未知の値はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	case RoleNone, "":
		return RoleNone, true
	default:
		return "", false
	}
}

// User はサービス利用ユーザーを表す。
// emailで一意に識別され、削除されることはない。
type User struct {
	ID        string
	Email     string
	Name      string
	PhotoURL  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Package model はドメインモデルを定義する。
package model

import "time"

// User は掲示板の利用ユーザーを表す。
// PasswordHashはbcryptハッシュで、レスポンスには含めない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsDeleted は退会済み（ソフトデリート済み）かどうかを返す。
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

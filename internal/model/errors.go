package model

import (
	"fmt"
	"net/http"
)

// ErrorKind はドメインエラーの分類を表す。
type ErrorKind string

const (
	// KindValidation は必須フィールド欠落や重複などの入力不備を示す。
	KindValidation ErrorKind = "validation"
	// KindAuthorization はセッションに認証済みユーザーIDが無いことを示す。
	KindAuthorization ErrorKind = "authorization"
	// KindOwnership は操作ユーザーが対象の所有者でないことを示す。
	KindOwnership ErrorKind = "ownership"
	// KindNotFound はルートまたはエンティティが見つからないことを示す。
	KindNotFound ErrorKind = "not_found"
	// KindMethod はサポート外のHTTPメソッドを示す。
	KindMethod ErrorKind = "method"
)

// AppError はドメイン層の失敗を表す統一エラー。
// 人間可読なメッセージとHTTPステータスコードを保持し、
// ハンドラー境界でレスポンスに変換される。
type AppError struct {
	Kind    ErrorKind
	Message string
	Status  int
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// NewValidationError は入力不備エラーを生成する。
func NewValidationError(format string, args ...any) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusBadRequest,
	}
}

// NewAuthorizationError は未ログインエラーを生成する。
func NewAuthorizationError() *AppError {
	return &AppError{
		Kind:    KindAuthorization,
		Message: "ログインが必要です。",
		Status:  http.StatusUnauthorized,
	}
}

// NewOwnershipError は所有者不一致エラーを生成する。
func NewOwnershipError(resource string) *AppError {
	return &AppError{
		Kind:    KindOwnership,
		Message: fmt.Sprintf("この%sを変更する権限がありません。", resource),
		Status:  http.StatusForbidden,
	}
}

// NewNotFoundError はエンティティ未検出エラーを生成する。
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("指定された%sが見つかりません: %s", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewRouteNotFoundError は未定義ルートへのアクセスエラーを生成する。
func NewRouteNotFoundError(path string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("指定されたパスは存在しません: %s", path),
		Status:  http.StatusNotFound,
	}
}

// NewMethodError はサポート外メソッドエラーを生成する。
func NewMethodError(method string) *AppError {
	return &AppError{
		Kind:    KindMethod,
		Message: fmt.Sprintf("サポートされていないHTTPメソッドです: %s", method),
		Status:  http.StatusMethodNotAllowed,
	}
}

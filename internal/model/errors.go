// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// APIレスポンスでは {"error": {"code", "message", "details"}} の形で返される。
type APIError struct {
	Code    string            // エラーコード
	Message string            // エラーメッセージ
	Details map[string]string // フィールド単位の違反内容（バリデーションエラー時のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUserExists         = "USER_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力値バリデーションエラーを生成する。
// detailsにはフィールド名をキーとした違反内容を格納する。
func NewValidationError(details map[string]string) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: "入力値が不正です。",
		Details: details,
	}
}

// NewMissingTokenError は認証トークン未指定エラーを生成する。
func NewMissingTokenError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingToken,
		Message: "認証トークンが指定されていません。",
	}
}

// NewInvalidTokenError は認証トークン不正エラーを生成する。
// 署名検証失敗・形式不正・失効済みリフレッシュトークンのいずれにも使用する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidToken,
		Message: "認証トークンが不正です。",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
// 署名は正しいが有効期限を過ぎたトークンに対してのみ使用する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:    ErrCodeTokenExpired,
		Message: "認証トークンの有効期限が切れています。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "認証が必要です。",
	}
}

// NewForbiddenError は所有権違反エラーを生成する。
// リソースは存在するが、呼び出しユーザーが所有者でない場合に使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "この操作を行う権限がありません。",
	}
}

// NewMovieNotFoundError は映画未検出エラーを生成する。
func NewMovieNotFoundError(movieID int64) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("指定された映画が見つかりません: %d", movieID),
	}
}

// NewUserExistsError はメールアドレス重複エラーを生成する。
func NewUserExistsError() *APIError {
	return &APIError{
		Code:    ErrCodeUserExists,
		Message: "このメールアドレスは既に登録されています。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレスの存在有無を呼び出し側に漏らさないため、
// ユーザー未登録とパスワード不一致で同一のエラーを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "メールアドレスまたはパスワードが正しくありません。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "リクエストが多すぎます。しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、呼び出し側には固定メッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: "内部エラーが発生しました。",
	}
}

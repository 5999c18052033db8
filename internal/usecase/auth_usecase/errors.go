package auth

import "errors"

var (
	//400 入力不正
	ErrValidation = errors.New("validation error")
	//401 認証失敗（メール不在とパスワード違いは区別しない）
	ErrUnauthenticated = errors.New("unauthenticated")
	//403 refreshの拒否
	ErrForbidden = errors.New("forbidden")
	//409相当 email重複（レスポンスは400）
	ErrConflict = errors.New("conflict")
	//404
	ErrNotFound = errors.New("not found")
	//500
	ErrInternal = errors.New("internal error")
)

// 入力エラー。Messageはそのままレスポンスに出す
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

package usecase

import "errors"

// Usecaseの失敗はHTTPステータス付きで返す。
// 404=対象なし / 403=他人のリソース / 400=不正な操作・入力 / 422=検証エラー
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

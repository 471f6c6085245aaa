package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput некорректный ввод пользователя (нет координаты и т.п.)
	ErrInvalidInput = errors.New("invalid input")
	// ErrPrecondition запрос без точек или без изображения
	ErrPrecondition = errors.New("precondition failed")
	// ErrSourceUnavailable в хосте нет активного документа
	ErrSourceUnavailable = errors.New("no active document")
	// ErrMalformedResponse ответ бэкенда не разобрался или в нём нет нужных полей
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrPlacement хост не смог вставить результат (мягкая ошибка)
	ErrPlacement = errors.New("placement failed")
	// ErrBusy запрос маски уже выполняется
	ErrBusy = errors.New("mask request already in flight")
)

// BackendError ответ бэкенда с неуспешным статусом. Тело сохраняется как есть.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend request failed: %d - %s", e.StatusCode, e.Body)
}

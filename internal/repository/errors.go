package repository

import "errors"

var (
	ErrNotFound      = errors.New("запись не найдена")
	ErrIndexConflict = errors.New("индекс элемента изменился")
	ErrAlreadyExists = errors.New("запись уже существует")
)

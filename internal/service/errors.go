// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — запись, человек или категория не найдены.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrTooLarge — загружаемый файл больше допустимого размера.
	ErrTooLarge = errors.New("файл слишком большой")
	// ErrConflict — путь категории уже существует.
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrInvalidOperation — операция над корнем или перенос категории в саму себя.
	ErrInvalidOperation = errors.New("недопустимая операция")
	// ErrUnauthorized — изменение без действующей сессии.
	ErrUnauthorized = errors.New("требуется авторизация")
	// ErrStorage — ошибка чтения или записи JSON-документа или файла.
	ErrStorage = errors.New("ошибка хранилища")
)

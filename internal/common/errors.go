// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки экономики (монеты, гемы, обмен)
var (
	// ErrInsufficientFunds — недостаточно средств для списания или обмена
	ErrInsufficientFunds = errors.New("недостаточно средств на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль, отрицательная или дробная там, где нужна целая)
	ErrInvalidAmount = errors.New("некорректная сумма")
)

// Ошибки магазина NFT
var (
	// ErrUnknownItem — предмета нет в каталоге
	ErrUnknownItem = errors.New("предмет не найден в каталоге")
	// ErrItemAlreadyOwned — предмет уже куплен; повторная покупка отклоняется без списания
	ErrItemAlreadyOwned = errors.New("предмет уже куплен")
)

// Ошибки настроек и событий
var (
	// ErrUnsupportedLanguage — язык не входит в список поддерживаемых
	ErrUnsupportedLanguage = errors.New("язык не поддерживается")
	// ErrMalformedEvent — в событии от мини-приложения нет обязательных полей
	ErrMalformedEvent = errors.New("некорректное событие")
	// ErrUnknownOutcome — результат матча не win и не lose
	ErrUnknownOutcome = errors.New("неизвестный результат матча")
)

// Ошибки хранилища
var (
	// ErrPersistence — ошибка записи/чтения хранилища; операция считается не применённой
	ErrPersistence = errors.New("ошибка сохранения данных")
)

// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование сумм, работа с временем.
package common

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PluralizeCoins возвращает правильную форму слова «монета» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "монета" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "монеты" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "монет" (0, 5-20, 25-30, 100, ...)
func PluralizeCoins(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "монета"
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "монеты"
	}

	return "монет"
}

// PluralizeClicks возвращает правильную форму слова «клик».
func PluralizeClicks(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "клик"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "клика"
	}
	return "кликов"
}

// FormatCoins форматирует сумму в монетах в читабельную строку.
// Пример: FormatCoins(150) → "150 монет"
func FormatCoins(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizeCoins(n))
}

// FormatGems форматирует баланс гемов (премиум-валюты).
// Гемы дробные (шаг 0.01), печатаем как есть.
// Пример: FormatGems(decimal "1.5") → "1.5 гемов"
func FormatGems(d decimal.Decimal) string {
	return fmt.Sprintf("%s гемов", d.String())
}

// GetMoscowTime возвращает текущее время в часовом поясе Москвы (Europe/Moscow).
// Используется планировщиком для ночного бэкапа.
func GetMoscowTime() time.Time {
	return time.Now().In(MoscowLocation())
}

// MoscowLocation возвращает Europe/Moscow, при ошибке — фиксированный UTC+3.
func MoscowLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Program — сохранённая программа на языке KALK.
//
// Программа хранится в виде исходного текста. Перед сохранением текст
// проверяется парсером, поэтому в хранилище лежит только синтаксически
// корректный код. Каждый запуск (Run) заново разбирает Source.
type Program struct {
	// ID — уникальный идентификатор программы.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя программы (например, "suma-cifrelor").
	Name string `json:"name"`

	// Source — исходный текст программы.
	Source string `json:"source"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения исходного текста.
	UpdatedAt time.Time `json:"updated_at"`
}

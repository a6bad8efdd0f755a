// Package paginate реализует постраничную навигацию по номеру страницы.
package paginate

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultPerPage - размер страницы по умолчанию.
const DefaultPerPage = 10

// Page описывает одну страницу выборки.
type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Total    int64
}

// New вычисляет страницу по сырому параметру запроса.
// Нечисловой или пустой номер дает первую страницу, выход за границы
// приводится к ближайшей существующей. При нуле записей есть одна пустая страница.
func New(rawPage string, total int64, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	raw := strings.TrimSpace(rawPage)
	number, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		// Число, не влезающее в int, все равно больше последней страницы
		number = numPages
	case err != nil, number < 1:
		number = 1
	case number > numPages:
		number = numPages
	}

	return Page{Number: number, NumPages: numPages, PerPage: perPage, Total: total}
}

// Offset - смещение первой записи страницы.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit - размер выборки для страницы.
func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page) NextNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

func (p Page) PreviousNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return p.Number
}

// Range возвращает номера всех страниц для навигатора.
func (p Page) Range() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

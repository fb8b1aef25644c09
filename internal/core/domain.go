package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Date is a calendar date. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID        string          `json:"id"`
		Type      TransactionType `json:"type"`
		Amount    Money           `json:"amount"`
		Category  string          `json:"category"`
		Date      Date            `json:"date"`
		Notes     string          `json:"notes,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// Draft is a transaction before it has been given an ID and creation time.
	Draft struct {
		Type     TransactionType
		Amount   Money
		Category string
		Date     Date
		Notes    string
	}

	// TransactionForm holds raw user input for a new transaction.
	TransactionForm struct {
		Type     string
		Amount   string
		Category string
		Date     string
		Notes    string
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyID         = errors.New("empty transaction id")
	ErrNotesTooLong    = errors.New("notes too long (max 500 characters)")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrInvalidCurrency = errors.New("invalid currency")
)

const maxNotesLength = 500

var (
	IncomeCategories = []string{
		"Salary",
		"Freelance",
		"Investments",
		"Gift",
		"Other",
	}
	ExpenseCategories = []string{
		"Housing",
		"Food",
		"Transportation",
		"Utilities",
		"Entertainment",
		"Health",
		"Shopping",
		"Education",
		"Travel",
		"Other",
	}
)

// CategoriesFor returns the suggested categories for a transaction type.
func CategoriesFor(t TransactionType) []string {
	switch t {
	case Income:
		return append([]string(nil), IncomeCategories...)
	case Expense:
		return append([]string(nil), ExpenseCategories...)
	default:
		return nil
	}
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (d Draft) Validate() error {
	if !d.Type.IsValid() {
		return ErrInvalidType
	}
	if !d.Amount.InRange() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if len(d.Notes) > maxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// Validate checks a complete record, as found in an imported backup.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	return t.Draft().Validate()
}

// Draft returns the user-supplied part of the transaction.
func (t Transaction) Draft() Draft {
	return Draft{
		Type:     t.Type,
		Amount:   t.Amount,
		Category: t.Category,
		Date:     t.Date,
		Notes:    t.Notes,
	}
}

// Signed returns the amount with the sign implied by the type.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

// Parse turns form input into a Draft. An empty date means today.
func (f TransactionForm) Parse(today Date) (Draft, error) {
	typ, err := ParseTransactionType(f.Type)
	if err != nil {
		return Draft{}, err
	}
	amount, err := ParseAmount(f.Amount)
	if err != nil {
		return Draft{}, err
	}
	date := today
	if strings.TrimSpace(f.Date) != "" {
		date, err = ParseDate(f.Date)
		if err != nil {
			return Draft{}, err
		}
	}
	d := Draft{
		Type:     typ,
		Amount:   amount,
		Category: strings.TrimSpace(f.Category),
		Date:     date,
		Notes:    strings.TrimSpace(f.Notes),
	}
	if err := d.Validate(); err != nil {
		return Draft{}, err
	}
	return d, nil
}

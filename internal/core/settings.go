package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	INR Currency = "INR"

	Dark  Theme = "dark"
	Light Theme = "light"

	DefaultCurrency = INR
	DefaultTheme    = Dark
)

type (
	Currency string
	Theme    string

	// CurrencyInfo describes how amounts in a currency are printed.
	CurrencyInfo struct {
		Symbol string
		Locale string

		groupSep     string
		decimalSep   string
		lakhGrouping bool // 1,00,000 instead of 100,000
		symbolSuffix bool
	}

	Settings struct {
		Currency Currency `json:"currency"`
		Theme    Theme    `json:"theme"`
	}

	// SettingsUpdate carries the fields to change; nil fields are left alone.
	SettingsUpdate struct {
		Currency *Currency
		Theme    *Theme
	}
)

var currencies = map[Currency]CurrencyInfo{
	INR: {Symbol: "₹", Locale: "en-IN", groupSep: ",", decimalSep: ".", lakhGrouping: true},
	USD: {Symbol: "$", Locale: "en-US", groupSep: ",", decimalSep: "."},
	EUR: {Symbol: "€", Locale: "de-DE", groupSep: ".", decimalSep: ",", symbolSuffix: true},
	GBP: {Symbol: "£", Locale: "en-GB", groupSep: ",", decimalSep: "."},
	JPY: {Symbol: "¥", Locale: "ja-JP", groupSep: ",", decimalSep: "."},
}

// Currencies lists the supported currencies in display order.
func Currencies() []Currency {
	return []Currency{INR, USD, EUR, GBP, JPY}
}

func (c Currency) IsValid() bool {
	_, ok := currencies[c]
	return ok
}

// Info returns display data for c, falling back to the default currency.
func (c Currency) Info() CurrencyInfo {
	if info, ok := currencies[c]; ok {
		return info
	}
	return currencies[DefaultCurrency]
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// FormatMoney renders m with the currency symbol and two fraction digits,
// e.g. "₹1,23,450.00", "$1,234.50" or "1.234,50 €". Formatting works on the
// integer cents so large amounts stay exact.
func FormatMoney(m Money, c Currency) string {
	info := c.Info()
	cents := m.Cents
	neg := cents < 0
	// uint64 keeps math.MinInt64 representable
	abs := uint64(cents)
	if neg {
		abs = uint64(-(cents + 1)) + 1
	}
	num := info.group(abs/100) + info.decimalSep + fmt.Sprintf("%02d", abs%100)
	s := info.Symbol + num
	if info.symbolSuffix {
		s = num + " " + info.Symbol
	}
	if neg {
		return "-" + s
	}
	return s
}

func (info CurrencyInfo) group(whole uint64) string {
	if !info.lakhGrouping {
		// humanize.Comma takes an int64; whole <= MaxInt64/100 always fits
		return strings.ReplaceAll(humanize.Comma(int64(whole)), ",", info.groupSep)
	}
	digits := strconv.FormatUint(whole, 10)
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, info.groupSep) + info.groupSep + tail
}

func (t Theme) IsValid() bool {
	return t == Dark || t == Light
}

// Toggle flips between dark and light.
func (t Theme) Toggle() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidTheme
	}
	return t, nil
}

func DefaultSettings() Settings {
	return Settings{Currency: DefaultCurrency, Theme: DefaultTheme}
}

// Apply returns s with the non-nil fields of u applied.
func (s Settings) Apply(u SettingsUpdate) Settings {
	if u.Currency != nil {
		s.Currency = *u.Currency
	}
	if u.Theme != nil {
		s.Theme = *u.Theme
	}
	return s
}

func (u SettingsUpdate) Validate() error {
	if u.Currency != nil && !u.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if u.Theme != nil && !u.Theme.IsValid() {
		return ErrInvalidTheme
	}
	return nil
}

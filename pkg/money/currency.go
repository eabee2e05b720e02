// Package money holds the currency value object shared by the monetary skills.
package money

import (
	"fmt"
	"regexp"
	"strings"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code.
type Currency struct {
	code string
}

// NewCurrency creates a Currency after validating the code is exactly 3 uppercase letters.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	return Currency{code: code}, nil
}

// ParseCurrency upper-cases and trims code before validating it.
func ParseCurrency(code string) (Currency, error) {
	return NewCurrency(strings.ToUpper(strings.TrimSpace(code)))
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// IsZero reports whether c was never set.
func (c Currency) IsZero() bool {
	return c.code == ""
}

func (c Currency) String() string {
	return c.code
}

// Common currencies.
var (
	USD = MustCurrency("USD")
	EUR = MustCurrency("EUR")
	GBP = MustCurrency("GBP")
)

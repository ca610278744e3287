package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyPattern matches a currency code glued to a decimal amount, e.g. "EUR194.56".
var moneyPattern = regexp.MustCompile(`^([A-Za-z]{3})([+-]?\d+(?:\.\d+)?)$`)

// Money is an amount in a single currency, kept exactly as the API sent it.
// No rounding or precision normalization is applied.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// ParseMoney parses the compact "<CUR><amount>" form used by the pricing API.
// Returns a *ParseError of KindMoney for anything else.
func ParseMoney(s string) (Money, error) {
	m := moneyPattern.FindStringSubmatch(s)
	if m == nil {
		return Money{}, &ParseError{Kind: KindMoney, Input: s}
	}

	amount, err := decimal.NewFromString(strings.TrimPrefix(m[2], "+"))
	if err != nil {
		return Money{}, &ParseError{Kind: KindMoney, Input: s}
	}

	return Money{Amount: amount, Currency: m[1]}, nil
}

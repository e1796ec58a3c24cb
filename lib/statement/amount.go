package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var plainAmount = regexp.MustCompile(`^(?:\d+(?:\.\d+)?|\.\d+)$`)

// ParseAmount parses a currency amount as printed on a statement
// (ex. "$1,245.78"). Negative amounts, written with a minus sign or in
// parentheses, and strings without digits are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if strings.ContainsAny(trimmed, "-(") {
		return decimal.Decimal{}, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, s)
	}

	cleaned := strings.NewReplacer(
		"$", "",
		",", "",
		" ", "",
		"USD", "",
		"usd", "",
		")", "",
	).Replace(trimmed)
	if !plainAmount.MatchString(cleaned) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return amount, nil
}

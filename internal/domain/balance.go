package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// BalanceParser extracts the farmed-currency balance from the bot's free-text
// profile card. The pattern is "<label>: <digits>" where the digit run may
// carry comma, dot, space or NBSP group separators.
type BalanceParser struct {
	pattern *regexp.Regexp
}

func NewBalanceParser(label string) BalanceParser {
	if strings.TrimSpace(label) == "" {
		label = DefaultProfileLabel
	}
	expr := regexp.QuoteMeta(label) + `:\s*([0-9][0-9,.\x{00a0}\x{202f} ]*)`
	return BalanceParser{pattern: regexp.MustCompile(expr)}
}

// Parse returns the balance and whether one was found. Absence of the label,
// an empty body or an unparseable digit run all report (0, false); no input
// is an error.
func (p BalanceParser) Parse(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}

	match := p.pattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, match[1])
	if digits == "" {
		return 0, false
	}

	balance, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}

	return balance, true
}

package normalize

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Policy describes how numbers are written on the source pages.
// It replaces any process-wide locale setting: every parse and format call
// goes through an explicit Policy value.
type Policy struct {
	Tag      language.Tag
	Decimal  rune
	Grouping rune
}

// EnUS is the convention used by the quote pages: "1,234,567.89".
var EnUS = Policy{Tag: language.AmericanEnglish, Decimal: '.', Grouping: ','}

// NewPolicy builds a Policy for a BCP 47 language tag such as "en-US" or "de-DE".
func NewPolicy(tag string) (Policy, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid locale %q: %w", tag, err)
	}

	base, _ := t.Base()
	switch base.String() {
	case "de", "es", "it", "nl", "pt", "id", "tr", "da":
		return Policy{Tag: t, Decimal: ',', Grouping: '.'}, nil
	case "fr", "ru", "pl", "sv", "fi", "nb", "cs", "uk":
		return Policy{Tag: t, Decimal: ',', Grouping: '\u00a0'}, nil
	default:
		return Policy{Tag: t, Decimal: '.', Grouping: ','}, nil
	}
}

// ParseLocaleNumber parses a grouped, possibly negative or parenthesized
// number such as "1,234", "-5,678.9" or "(12,000)".
func (p Policy) ParseLocaleNumber(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	negative := false

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if rest, ok := cutSign(s); ok {
		if negative {
			return decimal.Zero, NewParseError(text, "number", nil)
		}
		negative = true
		s = rest
	}

	var b strings.Builder
	seenDecimal := false
	digits := 0
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			digits++
		case p.isGrouping(r):
			if seenDecimal || i == 0 {
				return decimal.Zero, NewParseError(text, "number", nil)
			}
		case r == p.Decimal:
			if seenDecimal {
				return decimal.Zero, NewParseError(text, "number", nil)
			}
			seenDecimal = true
			b.WriteByte('.')
		default:
			return decimal.Zero, NewParseError(text, "number", nil)
		}
	}
	if digits == 0 {
		return decimal.Zero, NewParseError(text, "number", nil)
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, NewParseError(text, "number", err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// FormatGrouped renders the integer part of d with the policy's grouping,
// e.g. 1234567 -> "1,234,567" for EnUS.
func (p Policy) FormatGrouped(d decimal.Decimal) string {
	return message.NewPrinter(p.Tag).Sprintf("%d", d.IntPart())
}

// ParseMagnitude parses a market-cap style value in millions.
// A trailing "B" multiplies by 1,000 and "T" by 1,000,000. Any other trailing
// unit letter is dropped and the value kept as is.
func (p Policy) ParseMagnitude(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, NewParseError(text, "magnitude", nil)
	}

	multiplier := decimal.NewFromInt(1)
	last, size := utf8.DecodeLastRuneInString(s)
	if unicode.IsLetter(last) {
		if m, ok := magnitudeUnits[last]; ok {
			multiplier = decimal.NewFromInt(m)
		}
		s = s[:len(s)-size]
	}

	n, err := p.ParseLocaleNumber(s)
	if err != nil {
		return decimal.Zero, NewParseError(text, "magnitude", err)
	}
	return n.Mul(multiplier), nil
}

var magnitudeUnits = map[rune]int64{
	'B': 1_000,
	'T': 1_000_000,
}

func (p Policy) isGrouping(r rune) bool {
	if r == p.Grouping {
		return true
	}
	// narrow and non-breaking spaces stand in for a plain space separator
	return unicode.IsSpace(p.Grouping) && unicode.IsSpace(r)
}

func cutSign(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return strings.TrimSpace(rest), true
	}
	if rest, ok := strings.CutPrefix(s, "−"); ok {
		return strings.TrimSpace(rest), true
	}
	return s, false
}

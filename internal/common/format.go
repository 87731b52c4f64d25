package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultWidth = 80
	WideWidth    = 100

	sectionWidth = 78
)

// Field is one labelled line of a card
type Field struct {
	Label string
	Value string
}

func rule(char string, width int) string {
	return strings.Repeat(char, width)
}

// PrintHeader prints title framed by "=" rules
func PrintHeader(title string, width int) {
	fmt.Printf("\n%s\n%s\n%s\n", rule("=", width), title, rule("=", width))
}

// PrintFooter closes a report opened with PrintHeader
func PrintFooter(message string, width int) {
	fmt.Printf("\n%s\n%s\n%s\n\n", rule("=", width), message, rule("=", width))
}

// PrintCard prints a header followed by aligned label/value lines and a closing rule
func PrintCard(title string, width int, fields ...Field) {
	PrintHeader(title, width)

	labelWidth := 0
	for _, f := range fields {
		labelWidth = max(labelWidth, len(f.Label)+1)
	}
	for _, f := range fields {
		fmt.Printf("%-*s %s\n", labelWidth, f.Label+":", f.Value)
	}
	fmt.Println(rule("=", width))
}

// PrintSection opens a boxed section with a title and summary lines; list
// items follow as TreeItem lines.
func PrintSection(title string, details ...string) {
	fmt.Printf("\n┌─ %s\n", title)
	for _, d := range details {
		fmt.Println(TreeItem(false, d))
	}
	fmt.Println("├" + rule("─", sectionWidth))
}

// TreeItem prefixes line with the box-drawing marker for a list entry
func TreeItem(isLast bool, line string) string {
	if isLast {
		return "└  " + line
	}
	return "│  " + line
}

// FormatMoney renders an amount with two decimals and its currency code
func FormatMoney(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

// FormatChange renders a signed difference, e.g. "+12.50" or "-3.00"
func FormatChange(delta decimal.Decimal) string {
	if delta.IsNegative() {
		return delta.StringFixed(2)
	}
	return "+" + delta.StringFixed(2)
}

// FormatRate renders an optional percentage, "-" when unset
func FormatRate(rate *decimal.Decimal) string {
	if rate == nil {
		return "-"
	}
	return rate.StringFixed(2) + "%"
}

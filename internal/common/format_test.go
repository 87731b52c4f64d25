package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(decimal.RequireFromString("1234.5"), "USD"); got != "1234.50 USD" {
		t.Errorf("Expected 1234.50 USD, got %s", got)
	}
	if got := FormatMoney(decimal.NewFromInt(3), ""); got != "3.00" {
		t.Errorf("Expected 3.00, got %s", got)
	}
}

func TestFormatChange(t *testing.T) {
	if got := FormatChange(decimal.RequireFromString("12.5")); got != "+12.50" {
		t.Errorf("Expected +12.50, got %s", got)
	}
	if got := FormatChange(decimal.NewFromInt(-3)); got != "-3.00" {
		t.Errorf("Expected -3.00, got %s", got)
	}
	if got := FormatChange(decimal.Zero); got != "+0.00" {
		t.Errorf("Expected +0.00, got %s", got)
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(nil); got != "-" {
		t.Errorf("Expected -, got %s", got)
	}
	rate := decimal.RequireFromString("19.9")
	if got := FormatRate(&rate); got != "19.90%" {
		t.Errorf("Expected 19.90%%, got %s", got)
	}
}

func TestTreeItem(t *testing.T) {
	if got := TreeItem(false, "Checking"); got != "│  Checking" {
		t.Errorf("Unexpected item line %q", got)
	}
	if got := TreeItem(true, "Checking"); got != "└  Checking" {
		t.Errorf("Unexpected last item line %q", got)
	}
}

package balancesheet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"balance-sheet-go/internal/models"

	"github.com/shopspring/decimal"
)

var maxInterestRate = decimal.NewFromInt(100)

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// trimmedName returns a trimmed copy of an optional patch name
func trimmedName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	return &trimmed
}

func validateNonNegative(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("%s cannot be negative", field)
	}
	return nil
}

func validateInterestRate(rate *decimal.Decimal) error {
	if rate == nil {
		return nil
	}
	if rate.IsNegative() || rate.GreaterThan(maxInterestRate) {
		return fmt.Errorf("interest rate must be between 0 and 100, got %s", rate.String())
	}
	return nil
}

func validateAssetFields(fields models.AssetFields) error {
	if err := validateName(fields.Name); err != nil {
		return err
	}
	if !fields.Type.Valid() {
		return fmt.Errorf("invalid asset type %q", fields.Type)
	}
	return validateNonNegative("current value", fields.CurrentValue)
}

// validateAssetPatch applies the create rules to the fields that are present
func validateAssetPatch(patch models.AssetPatch) error {
	if patch.Name != nil {
		if err := validateName(*patch.Name); err != nil {
			return err
		}
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return fmt.Errorf("invalid asset type %q", *patch.Type)
	}
	if patch.CurrentValue != nil {
		if err := validateNonNegative("current value", *patch.CurrentValue); err != nil {
			return err
		}
	}
	if patch.Currency != nil && strings.TrimSpace(*patch.Currency) == "" {
		return errors.New("currency cannot be empty")
	}
	return nil
}

func validateLiabilityFields(fields models.LiabilityFields) error {
	if err := validateName(fields.Name); err != nil {
		return err
	}
	if !fields.Type.Valid() {
		return fmt.Errorf("invalid liability type %q", fields.Type)
	}
	if err := validateNonNegative("current balance", fields.CurrentBalance); err != nil {
		return err
	}
	if err := validateInterestRate(fields.InterestRate); err != nil {
		return err
	}
	if fields.MinimumPayment != nil {
		return validateNonNegative("minimum payment", *fields.MinimumPayment)
	}
	return nil
}

func validateLiabilityPatch(patch models.LiabilityPatch) error {
	if patch.Name != nil {
		if err := validateName(*patch.Name); err != nil {
			return err
		}
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return fmt.Errorf("invalid liability type %q", *patch.Type)
	}
	if patch.CurrentBalance != nil {
		if err := validateNonNegative("current balance", *patch.CurrentBalance); err != nil {
			return err
		}
	}
	if err := validateInterestRate(patch.InterestRate); err != nil {
		return err
	}
	if patch.Currency != nil && strings.TrimSpace(*patch.Currency) == "" {
		return errors.New("currency cannot be empty")
	}
	if patch.MinimumPayment != nil {
		return validateNonNegative("minimum payment", *patch.MinimumPayment)
	}
	return nil
}

func validateTransaction(txnType models.TransactionType, amount decimal.Decimal, date string) error {
	if !txnType.Valid() {
		return fmt.Errorf("invalid transaction type %q", txnType)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero, got %s", amount.String())
	}
	if date != "" {
		if err := validateDate("transaction date", date); err != nil {
			return err
		}
	}
	return nil
}

func validateDate(field, value string) error {
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		return fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", field, value)
	}
	return nil
}

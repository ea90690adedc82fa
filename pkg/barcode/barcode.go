// Package barcode implements the boleto bancário barcode and "linha
// digitável" checksum algorithms (FEBRABAN layout). Everything here is
// deterministic and free of I/O.
package barcode

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	barcodeLength       = 44
	digitableLineLength = 47
)

// CheckDigitMod10 computes the module-10 check digit used by the digitable
// line fields. Weights alternate 2,1 starting from the rightmost digit;
// product digits above 9 are summed.
func CheckDigitMod10(digits string) (int, error) {
	if err := validateDigits(digits); err != nil {
		return 0, err
	}
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		product := int(digits[i]-'0') * weight
		if product > 9 {
			product = product/10 + product%10
		}
		sum += product
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}
	remainder := sum % 10
	if remainder == 0 {
		return 0, nil
	}
	return 10 - remainder, nil
}

// CheckDigitMod11 computes the module-11 general check digit of the barcode.
// Weights cycle 2 through 9 from the rightmost digit; results of 0, 10 and
// 11 collapse to 1 per the FEBRABAN rule.
func CheckDigitMod11(digits string) (int, error) {
	if err := validateDigits(digits); err != nil {
		return 0, err
	}
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	dv := 11 - sum%11
	if dv == 0 || dv == 10 || dv == 11 {
		return 1, nil
	}
	return dv, nil
}

// ComputeBarcode assembles the 44-digit boleto barcode:
// bank (3) + currency (1) + general check digit (1) + due factor (4) +
// amount in cents (10) + free field (25).
func ComputeBarcode(bankCode string, currencyCode string, dueFactor int, amount decimal.Decimal, freeField string) (string, error) {
	if len(bankCode) != 3 {
		return "", fmt.Errorf("bank code must have 3 digits, got %q", bankCode)
	}
	if len(currencyCode) != 1 {
		return "", fmt.Errorf("currency code must have 1 digit, got %q", currencyCode)
	}
	if dueFactor < 0 || dueFactor > 9999 {
		return "", fmt.Errorf("due factor out of range: %d", dueFactor)
	}
	if len(freeField) != 25 {
		return "", fmt.Errorf("free field must have 25 digits, got %d", len(freeField))
	}
	if amount.IsNegative() {
		return "", fmt.Errorf("amount must not be negative")
	}

	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	if cents > 9999999999 {
		return "", fmt.Errorf("amount too large for barcode: %s", amount)
	}

	withoutDV := fmt.Sprintf("%s%s%04d%010d%s", bankCode, currencyCode, dueFactor, cents, freeField)
	if err := validateDigits(withoutDV); err != nil {
		return "", err
	}

	dv, err := CheckDigitMod11(withoutDV)
	if err != nil {
		return "", err
	}

	// The general check digit sits at position 5, between currency and factor.
	return withoutDV[:4] + fmt.Sprintf("%d", dv) + withoutDV[4:], nil
}

// ComputeDigitableLine derives the 47-digit digitable line from a 44-digit
// barcode. Fields one to three carry their own mod-10 check digits; field
// four is the barcode's general check digit; field five is factor + amount.
func ComputeDigitableLine(barcode string) (string, error) {
	if len(barcode) != barcodeLength {
		return "", fmt.Errorf("barcode must have %d digits, got %d", barcodeLength, len(barcode))
	}
	if err := validateDigits(barcode); err != nil {
		return "", err
	}

	field1 := barcode[0:4] + barcode[19:24]
	field2 := barcode[24:34]
	field3 := barcode[34:44]

	dv1, err := CheckDigitMod10(field1)
	if err != nil {
		return "", err
	}
	dv2, err := CheckDigitMod10(field2)
	if err != nil {
		return "", err
	}
	dv3, err := CheckDigitMod10(field3)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(digitableLineLength)
	fmt.Fprintf(&b, "%s%d", field1, dv1)
	fmt.Fprintf(&b, "%s%d", field2, dv2)
	fmt.Fprintf(&b, "%s%d", field3, dv3)
	b.WriteByte(barcode[4])
	b.WriteString(barcode[5:19])
	return b.String(), nil
}

// DueFactor converts a due date into the four-digit FEBRABAN due factor:
// days elapsed since 1997-10-07. The factor reached 9999 on 2025-02-21 and
// restarts at 1000 the following day, so the window recycles every 9000
// days from then on. Dates before the base return an error.
func DueFactor(dueDate time.Time) (int, error) {
	base := time.Date(1997, time.October, 7, 0, 0, 0, 0, time.UTC)
	day := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	factor := int(day.Sub(base).Hours() / 24)
	if factor < 0 {
		return 0, fmt.Errorf("due date %s precedes the factor base date", dueDate.Format("2006-01-02"))
	}
	if factor > 9999 {
		factor = (factor-1000)%9000 + 1000
	}
	return factor, nil
}

func validateDigits(digits string) error {
	if digits == "" {
		return fmt.Errorf("digits are required")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("non-numeric character %q", r)
		}
	}
	return nil
}

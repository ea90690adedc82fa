package barcode

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDigitMod10(t *testing.T) {
	tests := []struct {
		digits string
		want   int
	}{
		{"001905009", 5},
		{"4014481606", 9},
		{"0680935031", 4},
	}
	for _, tc := range tests {
		got, err := CheckDigitMod10(tc.digits)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "digits %s", tc.digits)
	}
}

func TestCheckDigitMod10Rejects(t *testing.T) {
	_, err := CheckDigitMod10("12a4")
	assert.Error(t, err)

	_, err = CheckDigitMod10("")
	assert.Error(t, err)
}

func TestCheckDigitMod11(t *testing.T) {
	// Banco do Brasil reference boleto, barcode stripped of its general DV.
	got, err := CheckDigitMod11("0019373700000001000500940144816060680935031")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestComputeBarcode(t *testing.T) {
	barcode, err := ComputeBarcode("001", "9", 3737, decimal.RequireFromString("1.00"), "0500940144816060680935031")
	require.NoError(t, err)
	assert.Equal(t, "00193373700000001000500940144816060680935031", barcode)
}

func TestComputeBarcodeValidation(t *testing.T) {
	amount := decimal.RequireFromString("1.00")

	_, err := ComputeBarcode("01", "9", 3737, amount, "0500940144816060680935031")
	assert.Error(t, err, "short bank code")

	_, err = ComputeBarcode("001", "9", 3737, amount, "123")
	assert.Error(t, err, "short free field")

	_, err = ComputeBarcode("001", "9", 3737, decimal.RequireFromString("-1"), "0500940144816060680935031")
	assert.Error(t, err, "negative amount")
}

func TestComputeDigitableLine(t *testing.T) {
	line, err := ComputeDigitableLine("00193373700000001000500940144816060680935031")
	require.NoError(t, err)
	assert.Equal(t, "00190500954014481606906809350314337370000000100", line)
	assert.Len(t, line, 47)
}

func TestComputeDigitableLineRoundTrip(t *testing.T) {
	barcode, err := ComputeBarcode("001", "9", 9048, decimal.RequireFromString("250.00"), "1234567890123456789012345")
	require.NoError(t, err)
	require.Len(t, barcode, 44)

	line, err := ComputeDigitableLine(barcode)
	require.NoError(t, err)
	assert.Len(t, line, 47)

	// Field five of the line reproduces factor + amount from the barcode.
	assert.Equal(t, barcode[5:19], line[33:])
}

func TestComputeDigitableLineRejectsBadLength(t *testing.T) {
	_, err := ComputeDigitableLine("123")
	assert.Error(t, err)
}

func TestDueFactor(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"1997-10-07", 0},
		{"2000-07-03", 1000},
		{"2025-02-21", 9999},
		{"2025-02-22", 1000},
		{"2026-08-29", 1553},
	}
	for _, tc := range tests {
		day, err := time.Parse("2006-01-02", tc.date)
		require.NoError(t, err)
		got, err := DueFactor(day)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "date %s", tc.date)
	}
}

func TestDueFactorRejectsPreBaseDates(t *testing.T) {
	_, err := DueFactor(time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

package enums

import "fmt"

// EntryType is the direction of a wallet ledger entry.
type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

var validEntryTypes = []EntryType{
	EntryTypeCredit,
	EntryTypeDebit,
}

// IsValid reports whether the value is a known EntryType.
func (t EntryType) IsValid() bool {
	for _, candidate := range validEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseEntryType converts raw input into an EntryType.
func ParseEntryType(value string) (EntryType, error) {
	for _, candidate := range validEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry type %q", value)
}

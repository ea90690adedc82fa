package enums

import "fmt"

// Acquirer identifies the external payment provider a charge was created on.
type Acquirer string

const (
	AcquirerMercadoPago Acquirer = "mercadopago"
	AcquirerEFI         Acquirer = "efi"
	AcquirerInter       Acquirer = "inter"
)

var validAcquirers = []Acquirer{
	AcquirerMercadoPago,
	AcquirerEFI,
	AcquirerInter,
}

// String implements fmt.Stringer.
func (a Acquirer) String() string {
	return string(a)
}

// IsValid reports whether the value is a known Acquirer.
func (a Acquirer) IsValid() bool {
	for _, candidate := range validAcquirers {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAcquirer converts raw input into an Acquirer.
func ParseAcquirer(value string) (Acquirer, error) {
	for _, candidate := range validAcquirers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid acquirer %q", value)
}

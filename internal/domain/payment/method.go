package payment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMethod = errors.New("payment: unknown payment method")
)

// Method is one of the manual transfer channels a customer can pay through.
type Method string

const (
	MethodTelebirr Method = "telebirr"
	MethodMPesa    Method = "mpesa"
	MethodCBE      Method = "cbe"
	MethodDashen   Method = "dashen"
	MethodCoop     Method = "coop"
)

var methods = []Method{MethodTelebirr, MethodMPesa, MethodCBE, MethodDashen, MethodCoop}

// Methods returns the supported methods in display order.
func Methods() []Method {
	return append([]Method(nil), methods...)
}

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Directory maps each method to the account details shown to the customer.
type Directory map[Method]string

// NewDirectory validates raw config keys against the supported methods.
func NewDirectory(raw map[string]string) (Directory, error) {
	d := make(Directory, len(raw))
	for k, v := range raw {
		m, err := ParseMethod(k)
		if err != nil {
			return nil, err
		}
		d[m] = v
	}
	return d, nil
}

// Instructions returns the transfer details for m.
func (d Directory) Instructions(m Method) string {
	if info, ok := d[m]; ok && info != "" {
		return info
	}
	return "Payment method not available"
}

// Enabled lists configured methods in display order.
func (d Directory) Enabled() []Method {
	out := make([]Method, 0, len(d))
	for _, m := range methods {
		if _, ok := d[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

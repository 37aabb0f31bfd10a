package model

import "strings"

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// Equals reports whether both tokens share an address.
func (t TokenMeta) Equals(other TokenMeta) bool {
	return t.Address != "" && strings.EqualFold(t.Address, other.Address)
}

// SortsBefore reports whether t precedes other in canonical pool order.
func (t TokenMeta) SortsBefore(other TokenMeta) bool {
	return normalizeHex(t.Address) < normalizeHex(other.Address)
}

// Label returns the symbol, or the address when the symbol is unknown.
func (t TokenMeta) Label() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address
}

func normalizeHex(address string) string {
	return strings.TrimPrefix(strings.ToLower(address), "0x")
}

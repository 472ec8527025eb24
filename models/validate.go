package models

import (
	"math/big"
)

// identifierLength is the length of both block hashes and account
// addresses as reported by the node.
const identifierLength = 64

// IsValidBlockID returns true if the id is a 64 character hex string.
// Case is ignored.
func IsValidBlockID(id string) bool {
	if len(id) != identifierLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidAccountID returns true if the id is 64 characters long and
// only contains letters, digits and underscores. Case is ignored so
// that both the xrb_ prefix and the upper case form validate.
func IsValidAccountID(id string) bool {
	if len(id) != identifierLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// IsValidTransferAmount returns true if the value parses as a base 10
// integer of any size. The sign is not checked here.
func IsValidTransferAmount(value string) bool {
	_, ok := new(big.Int).SetString(value, 10)
	return ok
}

// Package identity derives pseudonymous learner keys from account ids.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Learner is the stable pseudonymous key under which all session and
// profile data is stored. It cannot be reversed to the account id.
type Learner string

// Len is the number of hex characters in a Learner.
const Len = 16

// FromAccount derives the learner key of an account: the first 16 hex
// characters of SHA-256 over the trimmed account id.
func FromAccount(accountID string) Learner {
	sum := sha256.Sum256([]byte(strings.TrimSpace(accountID)))
	return Learner(hex.EncodeToString(sum[:])[:Len])
}

func (l Learner) String() string { return string(l) }

// Valid reports whether l has the shape FromAccount produces.
func (l Learner) Valid() bool {
	if len(l) != Len {
		return false
	}
	for _, c := range l {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// Package idgen generates task ids: a fixed prefix plus a nanoid suffix.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix is prepended to every task id.
const Prefix = "td-"

// Alphabet is lowercase-only so ids are easy to type in the CLI.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters after the prefix.
const Length = 10

// NewTaskID returns a fresh task id such as "td-k3v9q0x2ma".
func NewTaskID() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return Prefix + id, nil
}

// LooksLikeTaskID reports whether s has the shape NewTaskID produces.
// Imported data may carry other ids, so this is only used to give nicer CLI
// errors.
func LooksLikeTaskID(s string) bool {
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok || len(rest) != Length {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

// Package idgen provides short, URL-safe row ID generation backed by nanoid.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Row ID prefixes, one per configuration table.
const (
	PrefixAttribute        = "cfg-"
	PrefixAliquotType      = "alq-"
	PrefixPanel            = "pnl-"
	PrefixRequisitionPanel = "rqp-"
	PrefixProfile          = "prf-"
	PrefixProfileItem      = "pfi-"
	PrefixDestination      = "dst-"
	PrefixLabelPrinter     = "lpr-"
	PrefixLabelClient      = "lcl-"
	PrefixZplTemplate      = "zpl-"
	PrefixHoliday          = "hol-"
	PrefixConsentType      = "cst-"
)

// DefaultPrefix is prepended by Generate.
var DefaultPrefix = PrefixAttribute

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Generate returns a new unique ID using the default prefix.
func Generate() (string, error) {
	return GenerateWithPrefix(DefaultPrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// HasPrefix reports whether id was generated with prefix and carries a
// random part of the expected length.
func HasPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
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

package models

import (
	"math/rand"
	"strings"
	"time"
)

const idSuffixLen = 9

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRecordID builds a record id from the creation time plus a random base36
// suffix. The timestamp prefix doubles as the record's creation-time source,
// so ids sort chronologically and never change after creation.
func NewRecordID(now time.Time) string {
	var b strings.Builder
	b.WriteString(now.UTC().Format(time.RFC3339Nano))
	b.WriteByte('-')
	for i := 0; i < idSuffixLen; i++ {
		b.WriteByte(idAlphabet[rand.Intn(len(idAlphabet))])
	}
	return b.String()
}

// CreationTime extracts the creation timestamp embedded in a record id.
// Returns the zero time for ids that do not carry a parsable prefix.
func CreationTime(id string) time.Time {
	idx := strings.LastIndexByte(id, '-')
	if idx <= 0 {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, id[:idx])
	if err != nil {
		return time.Time{}
	}
	return t
}

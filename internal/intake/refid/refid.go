// Package refid generates citizen-facing reference identifiers of the form
// PREFIX-<time>-<random>, e.g. REPORT-MHK2L0QX-4Z81KD0P2A. Both segments are
// upper-case base36; the time segment is the creation instant in
// milliseconds so references sort roughly by submission time.
package refid

import (
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const randomLen = 10

// 36^10, the size of the random segment's space.
var randomSpace = new(big.Int).Exp(big.NewInt(36), big.NewInt(randomLen), nil).Uint64()

// Generator mints reference IDs.
type Generator struct {
	now func() time.Time
}

// New returns a Generator using the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock returns a Generator using now as its time source.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate mints a new reference ID with the given category prefix.
func (g *Generator) Generate(prefix string) string {
	ts := strconv.FormatInt(g.now().UnixMilli(), 36)
	return strings.ToUpper(prefix + "-" + ts + "-" + randomSegment())
}

var defaultGenerator = New()

// Generate mints a reference ID using the wall clock.
func Generate(prefix string) string {
	return defaultGenerator.Generate(prefix)
}

// randomSegment draws from the 74 random bits of a UUIDv7; the low 8 bytes
// carry 62 of them after the variant bits are masked out.
func randomSegment() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	n := binary.BigEndian.Uint64(id[8:]) & (1<<62 - 1)
	s := strconv.FormatUint(n%randomSpace, 36)
	if len(s) < randomLen {
		s = strings.Repeat("0", randomLen-len(s)) + s
	}
	return s
}

// Parse splits a reference ID and returns its prefix. ok is false when s is
// not shaped like a reference ID.
func Parse(s string) (prefix string, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return "", false
	}
	prefix, ts, random := parts[0], parts[1], parts[2]
	if prefix == "" || strings.IndexFunc(prefix, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return "", false
	}
	if ts == "" || !isBase36Upper(ts) || len(random) != randomLen || !isBase36Upper(random) {
		return "", false
	}
	return prefix, true
}

// CreatedAt decodes the time segment of a well-formed reference ID.
func CreatedAt(s string) (time.Time, bool) {
	if _, ok := Parse(s); !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.ToLower(strings.Split(s, "-")[1]), 36, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func isBase36Upper(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

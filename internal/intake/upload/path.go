package upload

import (
	"crypto/rand"
	"encoding/binary"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"govportal/internal/intake/models"
)

const maxExtLen = 8

// Filename derives a collision-resistant object name from the submitted
// file name: "<unix ms>-<base36 random><.ext>". Only the extension of the
// original survives, lower-cased and stripped to [a-z0-9].
func Filename(original string, now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomToken() + extension(original)
}

func randomToken() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
}

func extension(original string) string {
	ext := strings.TrimPrefix(filepath.Ext(filepath.Base(original)), ".")
	var b strings.Builder
	for _, r := range strings.ToLower(ext) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return ""
	}
	if len(clean) > maxExtLen {
		clean = clean[:maxExtLen]
	}
	return "." + clean
}

// Subfolder normalizes a location hint ("Jalingo North") into a path
// segment ("jalingo-north"). Blank or unusable hints map to the default folder.
func Subfolder(hint string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(hint)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingDash = true
		}
	}
	if b.Len() == 0 {
		return models.DefaultFolder
	}
	return b.String()
}

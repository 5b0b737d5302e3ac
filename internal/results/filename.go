package results

import (
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"
)

const (
	// fileSuffix is appended to every result file name.
	fileSuffix = "_results.txt"

	// maxNameBytes keeps the final name well under common 255-byte limits.
	maxNameBytes = 200

	// hashLen is the number of hex characters in the collision suffix.
	hashLen = 8
)

// reserved lists characters that are unsafe in file names on at least
// one common filesystem.
const reserved = `/\:*?"<>|`

// Sanitize returns a file-name-safe form of name and whether it differs
// from the input. The output is NFC-normalized.
func Sanitize(name string) (string, bool) {
	normalized := norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case r == utf8.RuneError:
			b.WriteRune('_')
		case strings.ContainsRune(reserved, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()

	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", "_")
	}
	if out == "" || out == "." {
		out = "_"
	}
	out = truncateBytes(out, maxNameBytes)

	return out, out != name
}

// FileName returns the result file name for a dork.
// Names that survive sanitizing unchanged are used as-is; otherwise a
// hash of the original dork is appended.
func FileName(dork string) string {
	safe, changed := Sanitize(dork)
	if changed {
		safe += "-" + shortHash(dork)
	}
	return safe + fileSuffix
}

// shortHash returns the first hashLen hex characters of the SHA3-256
// digest of s.
func shortHash(s string) string {
	sum := sha3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

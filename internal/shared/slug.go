package shared

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// HashSlugLength is the number of hex characters kept by [HashSlug].
const HashSlugLength = 16

var (
	slugDisallowed = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts s to a lower-case ASCII slug.
//
// Accents are decomposed and dropped, characters other than letters, digits,
// underscores, hyphens and whitespace are removed, and runs of whitespace or hyphens
// become a single hyphen. Leading and trailing hyphens and underscores are trimmed.
// Text with no ASCII content yields an empty slug.
func Slugify(s string) string {
	ascii := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))

	out, _, err := transform.String(ascii, s)
	if err != nil {
		return ""
	}

	out = slugDisallowed.ReplaceAllString(strings.ToLower(out), "")
	out = slugSeparators.ReplaceAllString(out, "-")
	return strings.Trim(out, "-_")
}

// HashSlug returns the first length hex characters of the SHA-256 digest of s.
func HashSlug(s string, length int) string {
	sum := sha256.Sum256([]byte(s))
	digest := hex.EncodeToString(sum[:])
	if length <= 0 || length > len(digest) {
		return digest
	}
	return digest[:length]
}

// SlugOrHash slugifies s, falling back to a [HashSlugLength] digest of s when the slug is empty.
func SlugOrHash(s string) string {
	if slug := Slugify(s); slug != "" {
		return slug
	}
	return HashSlug(s, HashSlugLength)
}

package domain

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// maxSanitizePasses bounds the strip/unescape loop. Every pass that changes
// the text also shortens it, so real input settles in two or three.
const maxSanitizePasses = 8

// SanitizeText strips any markup from user supplied free text and trims it.
// Entity-encoded markup is decoded and stripped as well, so the result never
// contains a tag once unescaped.
func SanitizeText(s string) string {
	out := strings.TrimSpace(s)
	for range maxSanitizePasses {
		next := html.UnescapeString(textPolicy.Sanitize(out))
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}

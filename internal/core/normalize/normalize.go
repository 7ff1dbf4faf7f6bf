// Package normalize provides the deterministic text cleanup applied to every harvested string
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFC composition
// 3 Collapse whitespace runs (newlines and tabs included) to single spaces and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is concurrency safe; transformers are pooled
type Normalizer struct{}

var chainPool = sync.Pool{
	New: func() any { return transform.Chain(norm.NFC) },
}

// New constructs a Normalizer
func New() *Normalizer { return &Normalizer{} }

// Normalize returns the cleaned form of s. Normalize(Normalize(s)) == Normalize(s)
func (n *Normalizer) Normalize(s string) string { return String(s) }

// String is the package-level form of Normalize
func String(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	if !norm.NFC.IsNormalString(s) {
		tr := chainPool.Get().(transform.Transformer)
		if ns, _, err := transform.String(tr, s); err == nil {
			s = ns
		}
		tr.Reset()
		chainPool.Put(tr)
	}

	return collapseSpaces(s)
}

// collapseSpaces turns every whitespace run into one ASCII space and trims both ends
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

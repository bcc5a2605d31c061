// Package name parses and interns scientific names.
//
// A [Name] wraps a trimmed name string such as "Panthera leo Linnaeus, 1758".
// Names compare case-insensitively and are interned: every spelling that is
// equal after trimming and lowercasing maps to a single *Name. The first
// spelling seen is the one kept for display.
//
// The decomposition into monomial or genus, specific epithet and optional
// subspecies is computed lazily on first access and memoized.
package name

import (
	"regexp"
	"strings"
	"sync"
)

var (
	// "Genus species [subspecies]", anything after is ignored.
	reBinomial = regexp.MustCompile(`^\s*([A-Z][a-z]+)\s+([a-z]+)(?:\s+([a-z]+))?\b`)
	// "Genus" or "FAMILY"-style uninomial.
	reMonomial = regexp.MustCompile(`^\s*([A-Z](?:[a-z]+|[A-Z]+))\b`)
)

// Name is an interned scientific name.
//
// The zero value is not usable; get one from [Of] or [Interner.Of].
type Name struct {
	s        string
	key      string
	interner *Interner

	once       sync.Once
	monomial   string
	genus      string
	epithet    string
	subspecies string
}

// String returns the trimmed name string as first seen by the interner.
func (n *Name) String() string {
	if n == nil {
		return ""
	}
	return n.s
}

// Key returns the lowercase form used for equality and hashing.
func (n *Name) Key() string {
	if n == nil {
		return ""
	}
	return n.key
}

// IsBlank reports whether the name string is empty.
func (n *Name) IsBlank() bool {
	return n == nil || n.s == ""
}

// Equal reports whether both names are equal, ignoring case.
func (n *Name) Equal(o *Name) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n == o || n.key == o.key
}

// Monomial returns the uninomial, or "" for a binomial or trinomial.
func (n *Name) Monomial() string {
	n.parse()
	return n.monomial
}

// SpecificEpithet returns the species part, or "" for a monomial.
func (n *Name) SpecificEpithet() string {
	n.parse()
	return n.epithet
}

// Subspecies returns the infraspecific part, or "".
func (n *Name) Subspecies() string {
	n.parse()
	return n.subspecies
}

// Binomial reports whether the name parsed as a binomial or trinomial.
func (n *Name) Binomial() bool {
	n.parse()
	return n.genus != ""
}

// Genus returns the interned genus of a binomial or trinomial.
//
// For a monomial it returns the interned empty Name.
func (n *Name) Genus() *Name {
	n.parse()
	return n.interner.Of(n.genus)
}

// ScientificName returns "genus species [subspecies]" or the monomial,
// without any authority.
func (n *Name) ScientificName() string {
	n.parse()
	if n.genus == "" {
		return n.monomial
	}
	if n.subspecies != "" {
		return n.genus + " " + n.epithet + " " + n.subspecies
	}
	return n.genus + " " + n.epithet
}

func (n *Name) parse() {
	n.once.Do(func() {
		if m := reBinomial.FindStringSubmatch(n.s); m != nil {
			n.genus, n.epithet, n.subspecies = m[1], m[2], m[3]
			return
		}
		if m := reMonomial.FindStringSubmatch(n.s); m != nil {
			n.monomial = m[1]
			return
		}
		n.monomial = n.s
	})
}

// Interner hands out one *Name per case-insensitive name string.
//
// It is safe for concurrent use.
type Interner struct {
	mu    sync.RWMutex
	names map[string]*Name
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{names: make(map[string]*Name)}
}

var defaultInterner = NewInterner()

// Default returns the process-wide interner used by [Of].
func Default() *Interner {
	return defaultInterner
}

// Of returns the Name for s from the default interner.
func Of(s string) *Name {
	return defaultInterner.Of(s)
}

// Of returns the Name for s, creating it on first use. It never fails.
func (in *Interner) Of(s string) *Name {
	s = strings.TrimSpace(s)
	key := strings.ToLower(s)
	in.mu.RLock()
	n := in.names[key]
	in.mu.RUnlock()
	if n != nil {
		return n
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if n = in.names[key]; n == nil {
		n = &Name{s: s, key: key, interner: in}
		in.names[key] = n
	}
	return n
}

// Len returns the number of distinct names interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.names)
}

// Reset forgets every interned name. Names handed out earlier stay valid but
// are no longer identical to the ones returned afterwards.
func (in *Interner) Reset() {
	in.mu.Lock()
	in.names = make(map[string]*Name)
	in.mu.Unlock()
}

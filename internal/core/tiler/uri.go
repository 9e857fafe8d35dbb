package tiler

import (
	"net/url"
	"strings"
)

// URI is the decomposed form of a tile/grid URL. URL templates with {z}
// style placeholders are accepted.
type URI struct {
	Scheme   string
	Host     string
	Port     string
	Path     string
	RawQuery string
	Fragment string
	Query    map[string]string
}

// ParseURI splits s into its components. It never fails: anything that does
// not parse as scheme://host is kept as the path.
func ParseURI(s string) URI {
	u := URI{Query: map[string]string{}}
	rest := s
	if before, frag, ok := strings.Cut(rest, "#"); ok {
		rest, u.Fragment = before, frag
	}
	if before, q, ok := strings.Cut(rest, "?"); ok {
		rest, u.RawQuery = before, q
	}

	if p, err := url.Parse(rest); err == nil {
		u.Scheme = p.Scheme
		u.Host = p.Hostname()
		u.Port = p.Port()
		u.Path = p.Path
	} else {
		u.Path = rest
	}

	// values stay as written: they are already encoded
	for _, pair := range strings.Split(u.RawQuery, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k != "" {
			u.Query[k] = v
		}
	}
	return u
}

// AddURLData appends data (an encoded name=value pair) to rawURL, choosing
// '?' when the URL has no query yet and '&' otherwise.
func AddURLData(rawURL, data string) string {
	sep := "?"
	if len(ParseURI(rawURL).Query) > 0 {
		sep = "&"
	}
	return rawURL + sep + data
}

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes s leaving only A-Z a-z 0-9 and - _ . ! ~ * ' ( )
// untouched, the component-encoding used by browser tile clients. Spaces
// become %20, not '+'.
func EncodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// Package keys derives cache keys for layer descriptors.
package keys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
)

const descriptorPrefix = "tilejson"

// LayerKey identifies the TileJSON descriptor of l. Two layers share a key
// exactly when they produce the same tile and grid URLs and opacity; the
// readable dataset segment only helps when browsing redis.
func LayerKey(l *layer.HostedDataLayer) string {
	u := tiler.TileAndGridURLs(l)

	h := xxhash.New()
	_, _ = h.WriteString(u.Tile)
	_, _ = h.WriteString("\n")
	_, _ = h.WriteString(u.Grid)
	_, _ = h.WriteString("\n")
	_, _ = h.WriteString(strconv.FormatFloat(l.Opacity, 'g', -1, 64))

	const maxDatasetLen = 64
	ds := sanitize(strings.TrimSpace(l.Dataset))
	if len(ds) > maxDatasetLen {
		ds = ds[:maxDatasetLen]
	}
	return fmt.Sprintf("%s:%s:%016x", descriptorPrefix, ds, h.Sum64())
}

// sanitize keeps [A-Za-z0-9_-]; whitespace runs become '_' and anything
// else (including non-ASCII) a single '-'.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

package tiler

import (
	"testing"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
)

func TestParseURI_Template(t *testing.T) {
	u := ParseURI("http://acme.cartodb.com:80/tiles/t/{z}/{x}/{y}.png?sql=SELECT%20*&a=1#frag")

	if u.Scheme != "http" || u.Host != "acme.cartodb.com" || u.Port != "80" {
		t.Fatalf("unexpected authority: %+v", u)
	}
	if u.Path != "/tiles/t/{z}/{x}/{y}.png" {
		t.Fatalf("path=%q", u.Path)
	}
	if u.Fragment != "frag" {
		t.Fatalf("fragment=%q", u.Fragment)
	}
	if len(u.Query) != 2 || u.Query["sql"] != "SELECT%20*" || u.Query["a"] != "1" {
		t.Fatalf("query=%v", u.Query)
	}
}

func TestParseURI_NoQuery(t *testing.T) {
	u := ParseURI("https://cdn.x/")
	if len(u.Query) != 0 || u.RawQuery != "" {
		t.Fatalf("expected empty query, got %+v", u)
	}
	if u.Port != "" {
		t.Fatalf("port=%q want empty", u.Port)
	}
}

func TestAddURLData(t *testing.T) {
	tests := []struct {
		in, data, want string
	}{
		{"http://h/t.png", "a=1", "http://h/t.png?a=1"},
		{"http://h/t.png?a=1", "b=2", "http://h/t.png?a=1&b=2"},
		{"https://cdn.x/?k=v", "b=2", "https://cdn.x/?k=v&b=2"},
		{"http://h/{z}/{x}/{y}.png", "sql=x", "http://h/{z}/{x}/{y}.png?sql=x"},
	}
	for _, tt := range tests {
		if got := AddURLData(tt.in, tt.data); got != tt.want {
			t.Fatalf("AddURLData(%q,%q)=%q want %q", tt.in, tt.data, got, tt.want)
		}
	}
}

func TestEncodeComponent(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM t":  "SELECT%20*%20FROM%20t",
		"a,b":              "a%2Cb",
		"it's (ok)!~_.-":   "it's%20(ok)!~_.-",
		"#t{a:1;}":         "%23t%7Ba%3A1%3B%7D",
		"x=1&y=2":          "x%3D1%26y%3D2",
		"Göteborg":         "G%C3%B6teborg",
		"":                 "",
		"name='Stockholm'": "name%3D'Stockholm'",
	}
	for in, want := range tests {
		if got := EncodeComponent(in); got != want {
			t.Fatalf("EncodeComponent(%q)=%q want %q", in, got, want)
		}
	}
}

func TestNewTileJSON(t *testing.T) {
	l := layer.NewHostedData("mytable")
	l.Interactivity = "cartodb_id"

	tj := NewTileJSON(l)
	u := TileAndGridURLs(l)

	if tj.TileJSON != "1.0.0" || tj.Scheme != "xyz" {
		t.Fatalf("unexpected header: %+v", tj)
	}
	if len(tj.Tiles) != 1 || tj.Tiles[0] != u.Tile || tj.TilesBase != u.Tile {
		t.Fatalf("tiles=%v base=%q want %q", tj.Tiles, tj.TilesBase, u.Tile)
	}
	if len(tj.Grids) != 1 || tj.Grids[0] != u.Grid || tj.GridsBase != u.Grid {
		t.Fatalf("grids=%v base=%q want %q", tj.Grids, tj.GridsBase, u.Grid)
	}
	if tj.Opacity != 0.99 {
		t.Fatalf("opacity=%v want 0.99", tj.Opacity)
	}

	data := map[string]any{"name": "x"}
	out := tj.Format(nil, data)
	if out["name"] != "x" {
		t.Fatalf("formatter must pass data through, got %v", out)
	}

	tj.Formatter = nil
	if out := tj.Format(nil, data); out["name"] != "x" {
		t.Fatalf("nil formatter must pass data through, got %v", out)
	}
}

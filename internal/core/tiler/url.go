// Package tiler builds request URLs and TileJSON descriptors for layers
// served by the hosted tiler and SQL API. Everything here is a pure function
// of the layer attributes.
package tiler

import (
	"strings"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
)

type Purpose int

const (
	PurposeTile Purpose = iota
	PurposeQuery
)

func (p Purpose) String() string {
	if p == PurposeQuery {
		return "query"
	}
	return "tile"
}

// BaseURL returns protocol://[account.]host[:port] for the endpoint serving
// purpose. A configured CDN URL wins over everything else.
func BaseURL(l *layer.HostedDataLayer, p Purpose) string {
	if l.CDNURL != "" {
		return l.CDNURL
	}

	protocol, host, port := l.TilerProtocol, l.TilerHost, l.TilerPort
	if p == PurposeQuery {
		protocol, host, port = l.QueryProtocol, l.QueryHost, l.QueryPort
	}

	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString("://")
	if l.Account != "" {
		b.WriteString(l.Account)
		b.WriteByte('.')
	}
	b.WriteString(host)
	if port != "" {
		b.WriteByte(':')
		b.WriteString(port)
	}
	return b.String()
}

type URLs struct {
	Tile string `json:"tile"`
	Grid string `json:"grid"`
}

func tilePath(l *layer.HostedDataLayer) string {
	return BaseURL(l, PurposeTile) + "/tiles/" + l.Dataset + "/{z}/{x}/{y}"
}

// TileAndGridURLs returns the image tile and UTFGrid URL templates for l,
// with sql, extra params, style and interactivity appended in that order.
func TileAndGridURLs(l *layer.HostedDataLayer) URLs {
	base := tilePath(l)
	u := URLs{Tile: base + ".png", Grid: base + ".grid.json"}

	add := func(data string) {
		u.Tile = AddURLData(u.Tile, data)
		u.Grid = AddURLData(u.Grid, data)
	}

	if l.Query != "" {
		add("sql=" + EncodeComponent(l.WithTableName(l.Query)))
	}
	l.EachExtraParam(func(name, value string) {
		add(name + "=" + value)
	})
	if l.TileStyle != "" {
		add("style=" + EncodeComponent(l.WithTableName(l.TileStyle)))
	}
	if l.Interactivity != "" {
		add("interactivity=" + EncodeComponent(strings.ReplaceAll(l.Interactivity, " ", "")))
	}
	return u
}

// StaticTileURL is the URL template of a non-interactive layer: sql and
// style are always present (style may be empty) followed by extra params.
func StaticTileURL(l *layer.HostedDataLayer) string {
	var b strings.Builder
	b.WriteString(tilePath(l))
	b.WriteString(".png?sql=")
	b.WriteString(EncodeComponent(l.WithTableName(l.Query)))
	b.WriteString("&style=")
	if l.TileStyle != "" {
		b.WriteString(EncodeComponent(l.WithTableName(l.TileStyle)))
	}
	l.EachExtraParam(func(name, value string) {
		b.WriteByte('&')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
	})
	return b.String()
}

// SQLURL addresses the SQL API with sql run against the layer's dataset.
func SQLURL(l *layer.HostedDataLayer, sql string) string {
	return AddURLData(BaseURL(l, PurposeQuery)+"/api/v1/sql", "q="+EncodeComponent(l.WithTableName(sql)))
}

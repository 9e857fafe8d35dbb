// Package layer models the renderable layers of a map and the ordered
// collection that holds them.
package layer

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
)

type Kind int

const (
	KindTiled Kind = iota + 1
	KindHostedData
)

func (k Kind) String() string {
	switch k {
	case KindTiled:
		return "Tiled"
	case KindHostedData:
		return "HostedData"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a layer "type" attribute to a Kind. An empty type is Tiled;
// "CartoDB" is accepted as the legacy name of HostedData.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tiled":
		return KindTiled, nil
	case "hosteddata", "cartodb":
		return KindHostedData, nil
	default:
		return 0, fmt.Errorf("unknown layer type %q", s)
	}
}

// Layer is one renderable map layer. Implementations must be pointer types:
// collections compare layers by identity.
type Layer interface {
	Kind() Kind
	IsVisible() bool
}

type Common struct {
	Visible bool `json:"visible" default:"true"`
}

func (c *Common) IsVisible() bool { return c.Visible }

// TiledLayer is a plain tile layer sourced from a {z}/{x}/{y} URL template.
type TiledLayer struct {
	Common
	URLTemplate string `json:"urlTemplate" validate:"required"`
}

func NewTiled(urlTemplate string) *TiledLayer {
	return &TiledLayer{Common: Common{Visible: true}, URLTemplate: urlTemplate}
}

func (l *TiledLayer) Kind() Kind { return KindTiled }

func (l *TiledLayer) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("tiled layer: %w", err)
	}
	return nil
}

// FeatureHandler receives pointer interaction with a feature of an
// interactive layer.
type FeatureHandler func(ev model.InputEvent, at model.LatLng, pos model.Pixel, data model.FeatureData)

const TableNamePlaceholder = "{{table_name}}"

// HostedDataLayer is rendered on demand by the hosted tiler from a SQL query
// against Dataset.
type HostedDataLayer struct {
	Common
	Account       string  `json:"user_name,omitempty"`
	Dataset       string  `json:"table_name" validate:"required"`
	Query         string  `json:"query" default:"SELECT * FROM {{table_name}}"`
	TileStyle     string  `json:"tile_style,omitempty"`
	Interactivity string  `json:"interactivity,omitempty"`
	Opacity       float64 `json:"opacity" default:"0.99" validate:"gte=0,lte=1"`
	AutoBound     bool    `json:"auto_bound"`
	Debug         bool    `json:"debug"`
	Attribution   string  `json:"attribution" default:"CartoDB"`

	TilerHost     string `json:"tiler_domain" default:"cartodb.com" validate:"required_without=CDNURL"`
	TilerPort     string `json:"tiler_port" default:"80" validate:"omitempty,numeric"`
	TilerProtocol string `json:"tiler_protocol" default:"http" validate:"oneof=http https"`
	QueryHost     string `json:"sql_domain" default:"cartodb.com" validate:"required_without=CDNURL"`
	QueryPort     string `json:"sql_port" default:"80" validate:"omitempty,numeric"`
	QueryProtocol string `json:"sql_protocol" default:"http" validate:"oneof=http https"`
	CDNURL        string `json:"cdn_url,omitempty" validate:"omitempty,url"`

	ExtraParams *orderedmap.OrderedMap[string, string] `json:"extra_params,omitempty" validate:"-"`

	OnFeatureHover FeatureHandler `json:"-" validate:"-"`
	OnFeatureClick FeatureHandler `json:"-" validate:"-"`
	OnFeatureLeave func()         `json:"-" validate:"-"`
}

// NewHostedData returns a layer for dataset with every default applied.
func NewHostedData(dataset string) *HostedDataLayer {
	l := &HostedDataLayer{}
	if err := defaults.Set(l); err != nil {
		// tags are static; a failure here is a programming error
		panic(fmt.Errorf("layer defaults: %w", err))
	}
	l.Dataset = dataset
	return l
}

func (l *HostedDataLayer) Kind() Kind { return KindHostedData }

// SetExtraParam appends (or overwrites in place) a request parameter sent
// with every tile and grid request.
func (l *HostedDataLayer) SetExtraParam(name, value string) {
	if l.ExtraParams == nil {
		l.ExtraParams = orderedmap.New[string, string]()
	}
	l.ExtraParams.Set(name, value)
}

// EachExtraParam visits extra params in insertion order.
func (l *HostedDataLayer) EachExtraParam(fn func(name, value string)) {
	if l.ExtraParams == nil {
		return
	}
	for p := l.ExtraParams.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// WithTableName replaces every table-name placeholder in s with Dataset.
func (l *HostedDataLayer) WithTableName(s string) string {
	return strings.ReplaceAll(s, TableNamePlaceholder, l.Dataset)
}

func (l *HostedDataLayer) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("hosted data layer %q: %w", l.Dataset, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

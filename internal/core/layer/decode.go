package layer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/creasty/defaults"
)

// DecodeOption adjusts a hosted-data layer after tag defaults and before the
// payload is applied, so deployments can point layers at their own tiler.
type DecodeOption func(*HostedDataLayer)

// Decode builds a layer from its JSON attribute bag. The "type" attribute
// selects the variant; defaults are applied before the payload so explicit
// zero values (visible=false, opacity=0) survive.
func Decode(data []byte, opts ...DecodeOption) (Layer, error) {
	var hdr struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("parse layer: %w", err)
	}
	kind, err := ParseKind(hdr.Type)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindTiled:
		l := &TiledLayer{}
		if err := decodeInto(data, l); err != nil {
			return nil, err
		}
		if err := l.Validate(); err != nil {
			return nil, err
		}
		return l, nil
	case KindHostedData:
		l := &HostedDataLayer{}
		if err := defaults.Set(l); err != nil {
			return nil, fmt.Errorf("layer defaults: %w", err)
		}
		for _, opt := range opts {
			opt(l)
		}
		if err := json.Unmarshal(data, l); err != nil {
			return nil, fmt.Errorf("parse layer attributes: %w", err)
		}
		if err := l.Validate(); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, errors.New("unreachable layer kind")
	}
}

func decodeInto(data []byte, dst any) error {
	if err := defaults.Set(dst); err != nil {
		return fmt.Errorf("layer defaults: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse layer attributes: %w", err)
	}
	return nil
}

func (l *TiledLayer) MarshalJSON() ([]byte, error) {
	type plain TiledLayer
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{Type: "Tiled", plain: (*plain)(l)})
}

func (l *HostedDataLayer) MarshalJSON() ([]byte, error) {
	type plain HostedDataLayer
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{Type: "HostedData", plain: (*plain)(l)})
}

package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

// Presets are named sets of engine properties.
var presets = map[string]preset{
	"default": {
		PropEnvelope: true,
		PropFilter:   true,
		PropVibrato:  true,
		PropLevel:    0.,
		PropInterp:   InterpScalar,
	},
	"raw": {
		PropEnvelope: false,
		PropFilter:   false,
		PropVibrato:  false,
	},
	"light": {
		PropFilter:  false,
		PropVibrato: false,
		PropInterp:  InterpBatch4,
	},
}

func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.Set(k, p[k]); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return nil
}

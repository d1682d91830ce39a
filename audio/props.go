package audio

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Property keys understood by the instrument.
const (
	PropEnvelope = "envelope"
	PropFilter   = "filter"
	PropVibrato  = "vibrato"
	PropLevel    = "level"
	PropInterp   = "interp"
)

// Props stores engine settings that can be read without locks. All
// properties should be registered before any reads take place.
type Props struct {
	properties map[string]*atomic.Value
	setters    map[string]setter
	onChange   func()
}

func NewProps() *Props {
	return &Props{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]setter),
	}
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props) Set(key string, value interface{}) error {
	prop, ok := p.properties[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	set := p.setters[key]
	if err := set(value, prop); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	if p.onChange != nil {
		p.onChange()
	}
	return nil
}

func (p *Props) Get(key string) (interface{}, error) {
	prop, ok := p.properties[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.Load(), nil
}

func (p *Props) Keys() []string {
	keys := make([]string, 0, len(p.properties))
	for k := range p.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds a new property.
func (p *Props) Register(key string, set setter, init interface{}) (*atomic.Value, error) {
	var prop atomic.Value
	p.properties[key] = &prop
	p.setters[key] = set
	return &prop, set(init, &prop)
}

func (p *Props) MustRegister(key string, set setter, init interface{}) *atomic.Value {
	if prop, err := p.Register(key, set, init); err != nil {
		panic(err)
	} else {
		return prop
	}
}

// OnChange registers f to run after every successful Set.
func (p *Props) OnChange(f func()) { p.onChange = f }

type setter func(val interface{}, dest *atomic.Value) error

var setLevel = setFloat64(-40, 10)

func setFloat64(min, max float64) setter {
	return func(v interface{}, dest *atomic.Value) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("value is not a float64: %v", v)
		}
		if f < min || f > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, f)
		}
		dest.Store(f)
		return nil
	}
}

// setBool accepts booleans and the numbers 0 and 1.
func setBool(v interface{}, dest *atomic.Value) error {
	switch b := v.(type) {
	case bool:
		dest.Store(b)
	case int:
		if b != 0 && b != 1 {
			return fmt.Errorf("value is not a bool: %v", v)
		}
		dest.Store(b == 1)
	case string:
		switch b {
		case "on", "true":
			dest.Store(true)
		case "off", "false":
			dest.Store(false)
		default:
			return fmt.Errorf("value is not a bool: %v", v)
		}
	default:
		return fmt.Errorf("value is not a bool: %v", v)
	}
	return nil
}

func setChoice(choices ...string) setter {
	return func(v interface{}, dest *atomic.Value) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("value is not a string: %v", v)
		}
		for _, c := range choices {
			if s == c {
				dest.Store(s)
				return nil
			}
		}
		return fmt.Errorf("value must be one of %v: %v", choices, s)
	}
}

package formulation

import (
	"fmt"
	"math"
	"sort"
)

// Parameters is a flat named parameter set as decoded from YAML or JSON.
// Each formulation reads only the keys it recognizes.
type Parameters map[string]interface{}

// DimensionError reports a formulation used in a dimension it cannot serve
type DimensionError struct {
	Name    string
	Dim     int
	Allowed []int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s cannot assemble in dimension %d, supported dimensions are %v",
		e.Name, e.Dim, e.Allowed)
}

func (p Parameters) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Keys lists the keys in sorted order
func (p Parameters) Keys() (keys []string) {
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

// Sub returns a nested parameter set, empty when key is absent
func (p Parameters) Sub(key string) (sub Parameters, err error) {
	v, ok := p[key]
	if !ok || v == nil {
		return Parameters{}, nil
	}
	switch m := v.(type) {
	case Parameters:
		sub = m
	case map[string]interface{}:
		sub = Parameters(m)
	default:
		err = fmt.Errorf("parameter %q must be a map, have %T", key, v)
	}
	return
}

func toFloat(key string, v interface{}) (f float64, err error) {
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		err = fmt.Errorf("parameter %q must be a number, have %v (%T)", key, v, v)
		return
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		err = fmt.Errorf("parameter %q must be finite, have %v", key, f)
	}
	return
}

// Float returns the value of key, or dflt when key is absent
func (p Parameters) Float(key string, dflt float64) (f float64, err error) {
	v, ok := p[key]
	if !ok {
		return dflt, nil
	}
	return toFloat(key, v)
}

// Int returns the integer value of key, or dflt when key is absent
func (p Parameters) Int(key string, dflt int) (i int, err error) {
	var (
		f float64
	)
	if !p.Has(key) {
		return dflt, nil
	}
	if f, err = p.Float(key, 0); err != nil {
		return
	}
	if f != float64(int(f)) {
		err = fmt.Errorf("parameter %q must be an integer, have %v", key, f)
		return
	}
	i = int(f)
	return
}

// List returns the array value of key; ok is false when key is absent
func (p Parameters) List(key string) (list []interface{}, ok bool, err error) {
	var v interface{}
	if v, ok = p[key]; !ok {
		return
	}
	switch l := v.(type) {
	case []interface{}:
		list = l
	case []float64:
		for _, f := range l {
			list = append(list, f)
		}
	case []int:
		for _, i := range l {
			list = append(list, i)
		}
	case []string:
		for _, s := range l {
			list = append(list, s)
		}
	default:
		err = fmt.Errorf("parameter %q must be an array, have %T", key, v)
	}
	return
}

// Floats returns the numeric array value of key
func (p Parameters) Floats(key string) (vals []float64, ok bool, err error) {
	var list []interface{}
	if list, ok, err = p.List(key); !ok || err != nil {
		return
	}
	vals = make([]float64, len(list))
	for i, v := range list {
		if vals[i], err = toFloat(fmt.Sprintf("%s[%d]", key, i), v); err != nil {
			return
		}
	}
	return
}

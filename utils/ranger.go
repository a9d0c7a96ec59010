package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseIDRange expands a boundary id specification into the ids it names.
// Accepted forms:
//
//	7        single id (int or integral float64 as decoded from YAML/JSON)
//	"7"      single id
//	"3:6"    inclusive range 3,4,5,6
func ParseIDRange(specI interface{}) (ids []int, err error) {
	switch spec := specI.(type) {
	case int:
		ids = []int{spec}
	case int64:
		ids = []int{int(spec)}
	case float64:
		if spec != float64(int(spec)) {
			err = fmt.Errorf("boundary id %v is not an integer", spec)
			return
		}
		ids = []int{int(spec)}
	case string:
		var i1, i2 int
		if i1, i2, err = parseRange(spec); err != nil {
			return
		}
		for i := i1; i <= i2; i++ {
			ids = append(ids, i)
		}
	default:
		err = fmt.Errorf("unable to parse boundary id specification %v of type %T", specI, specI)
	}
	return
}

func parseRange(dim string) (i1, i2 int, err error) {
	var (
		splits = strings.Split(strings.TrimSpace(dim), ":")
	)
	if len(splits) > 2 {
		err = fmt.Errorf("range %q has more than one ':'", dim)
		return
	}
	if i1, err = strconv.Atoi(strings.TrimSpace(splits[0])); err != nil {
		err = fmt.Errorf("range %q: %w", dim, err)
		return
	}
	if len(splits) == 1 {
		i2 = i1
		return
	}
	if i2, err = strconv.Atoi(strings.TrimSpace(splits[1])); err != nil {
		err = fmt.Errorf("range %q: %w", dim, err)
		return
	}
	if i2 < i1 {
		err = fmt.Errorf("range %q ends before it starts", dim)
	}
	return
}

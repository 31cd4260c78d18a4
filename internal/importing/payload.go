package importing

import (
	"sort"
	"strconv"

	"github.com/antonholmquist/jason"
)

// payload wraps a legacy JSON object with pop-style access: every read
// consumes the key, so whatever remains at the end is reported as
// unhandled. The legacy archives are stringly typed ("true"/"false"
// booleans, numeric strings), so accessors normalize as they go.
type payload struct {
	values map[string]*jason.Value
}

func newPayload(obj *jason.Object) *payload {
	return &payload{values: obj.Map()}
}

// pop removes and returns the raw value, nil when absent.
func (p *payload) pop(key string) *jason.Value {
	v, ok := p.values[key]
	if !ok {
		return nil
	}
	delete(p.values, key)
	return v
}

// popString removes the key and returns its string value, "" for
// missing or null.
func (p *payload) popString(key string) string {
	v := p.pop(key)
	if v == nil {
		return ""
	}
	s, err := v.String()
	if err != nil {
		return ""
	}
	return s
}

// popInt removes the key and returns its integer value, accepting both
// JSON numbers and numeric strings. Missing, null or malformed values
// yield the fallback.
func (p *payload) popInt(key string, fallback int) int {
	v := p.pop(key)
	if v == nil {
		return fallback
	}
	if n, err := v.Int64(); err == nil {
		return int(n)
	}
	if s, err := v.String(); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// popObjects removes the key and returns its array elements as
// objects. Missing or null yields an empty slice.
func (p *payload) popObjects(key string) []*jason.Object {
	v := p.pop(key)
	if v == nil {
		return nil
	}
	arr, err := v.ObjectArray()
	if err != nil {
		return nil
	}
	return arr
}

// leftoverKeys lists the keys never consumed, sorted for stable log
// output.
func (p *payload) leftoverKeys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortLegacyIDs sorts id strings ascending, numerically when both
// sides are numeric.
func sortLegacyIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		ni, errI := strconv.Atoi(ids[i])
		nj, errJ := strconv.Atoi(ids[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI != nil && errJ != nil:
			return ids[i] < ids[j]
		default:
			return errI == nil
		}
	})
}

// sortObjectsByField sorts objects in ascending order of the named
// field. Values that parse as integers compare numerically, everything
// else falls back to string comparison. Sorting is stable so equal
// keys keep their source order.
func sortObjectsByField(objects []*jason.Object, field string) {
	key := func(obj *jason.Object) (int, string, bool) {
		v, ok := obj.Map()[field]
		if !ok {
			return 0, "", false
		}
		if n, err := v.Int64(); err == nil {
			return int(n), "", true
		}
		if s, err := v.String(); err == nil {
			if n, err := strconv.Atoi(s); err == nil {
				return n, "", true
			}
			return 0, s, false
		}
		return 0, "", false
	}
	sort.SliceStable(objects, func(i, j int) bool {
		ni, si, numI := key(objects[i])
		nj, sj, numJ := key(objects[j])
		if numI && numJ {
			return ni < nj
		}
		if !numI && !numJ {
			return si < sj
		}
		// Numbers sort before non-numbers.
		return numI
	})
}

package table

import (
	"sort"
	"strconv"
)

// Key identifies a row or a column: a property name, an array index, or the
// sentinel used when a value has no natural key.
type Key interface {
	isKey()
	String() string
}

// SentinelKey stands for the value itself.
type SentinelKey struct{}

// StringKey is an object property name.
type StringKey string

// IndexKey is an array position.
type IndexKey int

func (SentinelKey) isKey() {}
func (StringKey) isKey()   {}
func (IndexKey) isKey()    {}

func (SentinelKey) String() string { return "" }
func (k StringKey) String() string { return string(k) }
func (k IndexKey) String() string  { return strconv.Itoa(int(k)) }

// Sentinel is the shared sentinel key value.
var Sentinel Key = SentinelKey{}

// CollectKeys merges key lists into a duplicate free list in first-seen
// order. It makes a single pass over all keys.
func CollectKeys(lists [][]Key) []Key {
	size := 0
	for _, l := range lists {
		size += len(l)
	}
	seen := make(map[Key]struct{}, size)
	out := make([]Key, 0, size)
	for _, l := range lists {
		for _, k := range l {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func keyGroup(k Key) int {
	switch k.(type) {
	case SentinelKey:
		return 0
	case StringKey:
		return 1
	default:
		return 2
	}
}

// SortKeys orders keys sentinel first, then property names, then indices.
// Keys keep their relative order within each group.
func SortKeys(keys []Key) []Key {
	out := append([]Key(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		return keyGroup(out[i]) < keyGroup(out[j])
	})
	return out
}

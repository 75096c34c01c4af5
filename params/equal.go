package params

import (
	"math"
	"slices"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// Equal compares the public projections of a and b structurally. Field
// order is irrelevant, numbers compare by value (NaN equals NaN), and a nil
// value equals an absent key. A nil mapping (unparameterized) only equals
// another nil one.
func Equal(a, b types.Params) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	for k, av := range a {
		if !types.IsPublicKey(k) {
			continue
		}
		bv, ok := b[k]
		if !ok {
			if av != nil {
				return false
			}
			continue
		}
		if !valueEqual(av, bv) {
			return false
		}
	}
	for k, bv := range b {
		if !types.IsPublicKey(k) {
			continue
		}
		if _, ok := a[k]; !ok && bv != nil {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	if x, ok := types.Number(a); ok {
		y, ok := types.Number(b)
		return ok && numberEqual(x, y)
	}
	if x, ok := types.NumberSeq(a); ok {
		y, ok := types.NumberSeq(b)
		return ok && slices.EqualFunc(x, y, numberEqual)
	}
	return false
}

// numberEqual treats NaN as equal to NaN, matching the rendered identity.
func numberEqual(x, y float64) bool {
	return x == y || (math.IsNaN(x) && math.IsNaN(y))
}

// FindDuplicate returns the indices of the first pair of mappings in list
// whose public projections are equal. The comparison is pairwise.
func FindDuplicate(list []types.Params) (first, second int, found bool) {
	for j := 1; j < len(list); j++ {
		for i := 0; i < j; i++ {
			if Equal(list[i], list[j]) {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

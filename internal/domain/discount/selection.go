package discount

import (
	"sort"

	"github.com/samber/lo"
)

// SelectBest merges freshly built candidates with the existing discounts and
// keeps only the single largest. Candidates come first, so on equal amounts
// a new candidate wins over an existing discount and earlier input wins over
// later. Nil candidates are ignored.
func SelectBest(candidates []*Discount, existing []*Discount) []*Discount {
	all := lo.Compact(append(append([]*Discount{}, candidates...), existing...))
	if len(all) == 0 {
		return []*Discount{}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Amount.GreaterThan(all[j].Amount)
	})

	return all[:1]
}

package discount

import (
	"github.com/samber/lo"
)

// Diff is the change set sent to the processor when a subscription's
// discounts changed since its last sync.
type Diff struct {
	// Add are discounts the processor does not know yet, sent by catalog id
	Add []*Discount
	// Update are known discounts whose amount or cycle count changed
	Update []*Discount
	// Remove are previously synced discounts that are gone, sent by external id
	Remove []Snapshot
}

func (d Diff) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Update) == 0 && len(d.Remove) == 0
}

// ComputeDiff compares the last synced discounts with the current ones.
// Identity is the local discount id.
func ComputeDiff(before []Snapshot, after []*Discount) Diff {
	previous := lo.SliceToMap(before, func(s Snapshot) (string, Snapshot) {
		return s.ID, s
	})

	var diff Diff
	for _, d := range after {
		prev, ok := previous[d.ID]
		switch {
		case !ok || prev.ExternalID == "":
			diff.Add = append(diff.Add, d)
		case prev.Differs(d):
			diff.Update = append(diff.Update, d)
		}
	}

	current := lo.SliceToMap(after, func(d *Discount) (string, struct{}) {
		return d.ID, struct{}{}
	})
	for _, s := range before {
		if _, ok := current[s.ID]; !ok && s.ExternalID != "" {
			diff.Remove = append(diff.Remove, s)
		}
	}

	return diff
}

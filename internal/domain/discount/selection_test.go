package discount

import (
	"testing"

	"github.com/flexprice/billsync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withAmount(id, amount string) *Discount {
	return &Discount{ID: id, Kind: types.DiscountKindAmount, Amount: dec(amount)}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []*Discount
		existing   []*Discount
		expected   string
	}{
		{name: "nothing"},
		{name: "only nils", candidates: []*Discount{nil, nil}},
		{
			name:       "largest candidate",
			candidates: []*Discount{withAmount("a", "1"), nil, withAmount("b", "3"), withAmount("c", "2")},
			expected:   "b",
		},
		{
			name:       "existing discount is larger",
			candidates: []*Discount{withAmount("a", "1")},
			existing:   []*Discount{withAmount("old", "4")},
			expected:   "old",
		},
		{
			name:       "ties keep input order",
			candidates: []*Discount{withAmount("first", "2"), withAmount("second", "2")},
			expected:   "first",
		},
		{
			name:       "tie between candidate and existing keeps candidate",
			candidates: []*Discount{withAmount("new", "2")},
			existing:   []*Discount{withAmount("old", "2")},
			expected:   "new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SelectBest(tt.candidates, tt.existing)
			if tt.expected == "" {
				assert.Empty(t, result)
				return
			}
			require.Len(t, result, 1)
			assert.Equal(t, tt.expected, result[0].ID)
		})
	}
}

func TestComputeDiff(t *testing.T) {
	synced := func(id, ext, amount string) *Discount {
		d := withAmount(id, amount)
		d.Link.MarkSynced(ext)
		return d
	}

	kept := synced("kept", "ext_kept", "1")
	changed := synced("changed", "ext_changed", "2")
	removed := synced("removed", "ext_removed", "3")
	before := []Snapshot{kept.Snapshot(), changed.Snapshot(), removed.Snapshot()}

	changed.Amount = dec("2.50")
	added := withAmount("added", "5")

	diff := ComputeDiff(before, []*Discount{kept, changed, added})
	require.False(t, diff.IsEmpty())
	require.Len(t, diff.Add, 1)
	assert.Equal(t, "added", diff.Add[0].ID)
	require.Len(t, diff.Update, 1)
	assert.Equal(t, "changed", diff.Update[0].ID)
	require.Len(t, diff.Remove, 1)
	assert.Equal(t, "ext_removed", diff.Remove[0].ExternalID)

	assert.True(t, ComputeDiff(before[:1], []*Discount{kept}).IsEmpty())
}

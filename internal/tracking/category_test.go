package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCategoryPath(t *testing.T) {
	tests := []struct {
		name string
		tree []CategoryNode
		want []string
	}{
		{
			name: "empty tree",
			tree: nil,
			want: nil,
		},
		{
			name: "single node",
			tree: []CategoryNode{{Name: "A"}},
			want: []string{"A"},
		},
		{
			name: "nested chain",
			tree: []CategoryNode{
				{Name: "A", Subcategories: []CategoryNode{
					{Name: "B", Subcategories: []CategoryNode{{Name: "C"}}},
				}},
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "only first sibling is followed",
			tree: []CategoryNode{
				{Name: "A", Subcategories: []CategoryNode{
					{Name: "B", Subcategories: []CategoryNode{{Name: "C"}}},
					{Name: "X", Subcategories: []CategoryNode{{Name: "Y"}}},
				}},
				{Name: "Root2"},
			},
			want: []string{"A", "B", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeCategoryPath(tt.tree))
		})
	}
}

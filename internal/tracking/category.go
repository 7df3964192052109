package tracking

// ComputeCategoryPath walks the tree from the root, following only the first
// node at each level, and returns the names along that path.
//
// Sibling branches are never visited, so an article filed under several
// categories reports the first one only.
func ComputeCategoryPath(tree []CategoryNode) []string {
	if len(tree) == 0 {
		return nil
	}

	node := tree[0]
	path := []string{node.Name}
	if len(node.Subcategories) > 0 {
		path = append(path, ComputeCategoryPath(node.Subcategories)...)
	}
	return path
}

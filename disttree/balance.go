package disttree

// Balance refines a linear set of keys until adjacent boxes differ by at
// most one level, the 2:1 condition. Coarse leaves adjacent to fine ones
// are replaced by their children until the condition holds, so the result
// is linear and covers exactly the space of the input.
func Balance(keys []Key) []Key {
	current := Linearize(keys)
	for {
		refine := map[Key]struct{}{}
		for _, k := range current {
			if k.Level() < 2 {
				continue
			}
			// A coarser leaf adjacent to k must contain a box one level
			// above k touching k, and every such box is the parent of
			// one of k's neighbors.
			for _, n := range k.Neighbors() {
				c := n.Parent()
				if owner, ok := findOwner(current, c); ok && owner.Level() < c.Level() {
					refine[owner] = struct{}{}
				}
			}
		}
		if len(refine) == 0 {
			return current
		}
		next := make([]Key, 0, len(current)+8*len(refine))
		for _, k := range current {
			if _, ok := refine[k]; ok {
				// Children take the parent's contiguous Morton range,
				// so the list stays sorted.
				next = append(next, k.Children()...)
			} else {
				next = append(next, k)
			}
		}
		current = next
	}
}

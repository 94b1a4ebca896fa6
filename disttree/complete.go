package disttree

// CompleteRegion returns the minimal list of keys whose boxes exactly cover
// the space strictly between a and b along the Morton curve. Neither
// endpoint is included, and no returned box overlaps an endpoint's box.
func CompleteRegion(a, b Key) []Key {
	if !a.Less(b) {
		return nil
	}
	var region []Key
	work := a.FinestCommonAncestor(b).Children()
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		if a.Less(c) && c.Less(b) && !c.IsAncestorOf(b) {
			region = append(region, c)
		} else if c.IsAncestorOf(a) || c.IsAncestorOf(b) {
			work = append(work, c.Children()...)
		}
	}
	SortKeys(region)
	return region
}

// Linearize sorts the keys and removes duplicates and every key that
// properly contains another, keeping the finest boxes.
func Linearize(keys []Key) []Key {
	if len(keys) == 0 {
		return nil
	}
	sorted := append([]Key{}, keys...)
	SortKeys(sorted)
	linear := make([]Key, 0, len(sorted))
	for i, k := range sorted {
		// In Morton order an ancestor immediately precedes its first
		// present descendant, so the adjacent check suffices.
		if i+1 < len(sorted) {
			next := sorted[i+1]
			if k == next || k.IsAncestorOf(next) {
				continue
			}
		}
		linear = append(linear, k)
	}
	return linear
}

// Complete extends keys to a minimal linear tree covering the whole domain.
func Complete(keys []Key) []Key {
	linear := Linearize(keys)
	if len(linear) == 0 {
		return []Key{Root}
	}
	out := make([]Key, 0, len(linear))
	if first := Root.DeepestFirstDescendant(); !containsKey(linear[0], first) {
		out = append(out, first)
		out = append(out, CompleteRegion(first, linear[0])...)
	}
	out = append(out, linear[0])
	for i := 1; i < len(linear); i++ {
		out = append(out, CompleteRegion(linear[i-1], linear[i])...)
		out = append(out, linear[i])
	}
	if last := Root.DeepestLastDescendant(); !containsKey(linear[len(linear)-1], last) {
		out = append(out, CompleteRegion(linear[len(linear)-1], last)...)
		out = append(out, last)
	}
	return out
}

// containsKey reports whether box contains other, allowing equality.
func containsKey(box, other Key) bool {
	return box == other || box.IsAncestorOf(other)
}

// findOwner locates the leaf containing key in a sorted linear leaf list.
func findOwner(leaves []Key, key Key) (Key, bool) {
	idx := searchKeys(leaves, key)
	// The owner is the last leaf ordering at or before key.
	if idx == len(leaves) || leaves[idx] != key {
		idx--
	}
	if idx < 0 {
		return 0, false
	}
	if !containsKey(leaves[idx], key) {
		return 0, false
	}
	return leaves[idx], true
}

// searchKeys returns the first index whose key orders at or after key.
func searchKeys(keys []Key, key Key) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if keys[mid].Less(key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

package disttree

import (
	"github.com/unixpickle/essentials"
)

// AllKeys returns this rank's leaves together with all of their ancestors,
// sorted in Morton order with duplicates removed.
func (t *Tree) AllKeys() []Key {
	seen := make(map[Key]struct{}, 2*len(t.Keys))
	for _, k := range t.Keys {
		seen[k] = struct{}{}
		for _, a := range k.Ancestors() {
			if _, ok := seen[a]; ok {
				break
			}
			seen[a] = struct{}{}
		}
	}
	all := make([]Key, 0, len(seen))
	for k := range seen {
		all = append(all, k)
	}
	SortKeys(all)
	return all
}

// LevelKeys groups AllKeys by refinement level. Each level's keys are in
// Morton order.
func (t *Tree) LevelKeys() map[int][]Key {
	levels := map[int][]Key{}
	for _, k := range t.AllKeys() {
		levels[k.Level()] = append(levels[k.Level()], k)
	}
	return levels
}

// LeafMap maps every non-empty leaf to the indices of its points within
// t.Points.
func (t *Tree) LeafMap() map[Key][]int {
	leafMap := map[Key][]int{}
	for i, p := range t.Points {
		leafMap[p.Key] = append(leafMap[p.Key], i)
	}
	return leafMap
}

// NearFieldMap computes the near field of every key in the tree: the
// adjacent keys at the same level.
func (t *Tree) NearFieldMap() map[Key][]Key {
	return computeKeyMap(t.AllKeys(), Key.NearField)
}

// InteractionListMap computes the interaction list of every key in the
// tree: same-level children of the parent's neighbors which are not
// adjacent to the key.
func (t *Tree) InteractionListMap() map[Key][]Key {
	return computeKeyMap(t.AllKeys(), Key.InteractionList)
}

func computeKeyMap(keys []Key, f func(Key) []Key) map[Key][]Key {
	results := make([][]Key, len(keys))
	essentials.ConcurrentMap(0, len(keys), func(i int) {
		results[i] = f(keys[i])
	})
	keyMap := make(map[Key][]Key, len(keys))
	for i, k := range keys {
		keyMap[k] = results[i]
	}
	return keyMap
}

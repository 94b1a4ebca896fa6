package disttree

import (
	"math/rand"
	"testing"
)

// checkLinearCoverage verifies that keys are sorted, non-overlapping, and
// exactly cover the deepest-level cells from lo to hi inclusive.
func checkLinearCoverage(t *testing.T, keys []Key, lo, hi uint64) {
	t.Helper()
	expect := lo
	for i, k := range keys {
		if k.payload() != expect {
			t.Fatalf("key %d starts at cell %d, want %d", i, k.payload(), expect)
		}
		expect = k.DeepestLastDescendant().payload() + 1
	}
	if expect != hi+1 {
		t.Fatalf("coverage ends at cell %d, want %d", expect, hi+1)
	}
}

func TestCompleteRegion(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		a := KeyFromAnchor(randomAnchor(r, DeepestLevel), DeepestLevel)
		b := KeyFromAnchor(randomAnchor(r, DeepestLevel), DeepestLevel)
		if b.Less(a) {
			a, b = b, a
		}
		region := CompleteRegion(a, b)
		if a == b || a.DeepestLastDescendant().payload()+1 == b.payload() {
			if len(region) != 0 {
				t.Fatalf("adjacent keys produced a %d-key region", len(region))
			}
			continue
		}
		covered := append(append([]Key{a}, region...), b)
		checkLinearCoverage(t, covered, a.payload(), b.payload())
	}
}

func TestCompleteRegionSameKey(t *testing.T) {
	key := KeyFromAnchor([3]uint64{0, 0, 0}, 3)
	if region := CompleteRegion(key, key); region != nil {
		t.Errorf("region between a key and itself: %v", region)
	}
}

func TestLinearize(t *testing.T) {
	parent := KeyFromAnchor([3]uint64{0, 0, 0}, 3)
	children := parent.Children()
	keys := append([]Key{parent, parent, children[2]}, parent.Ancestors()...)
	linear := Linearize(keys)
	if len(linear) != 1 || linear[0] != children[2] {
		t.Fatalf("linearize kept %v", linear)
	}

	// Already-linear input is preserved.
	again := Linearize(children)
	if len(again) != len(children) {
		t.Fatalf("linearize dropped siblings: %v", again)
	}
	for i, k := range again {
		if k != children[i] {
			t.Fatalf("linearize reordered siblings at %d", i)
		}
	}
}

func TestComplete(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	var keys []Key
	for i := 0; i < 20; i++ {
		level := 2 + r.Intn(6)
		keys = append(keys, KeyFromAnchor(randomAnchor(r, level), level))
	}
	complete := Complete(keys)
	checkLinearCoverage(t, complete, 0, 1<<payloadBits-1)

	// Input keys survive unless a finer input key overlaps them.
	linear := Linearize(keys)
	for _, k := range linear {
		if _, ok := findOwner(complete, k.DeepestFirstDescendant()); !ok {
			t.Fatalf("input key %v not covered", k)
		}
	}
}

func TestCompleteEmpty(t *testing.T) {
	complete := Complete(nil)
	checkLinearCoverage(t, complete, 0, 1<<payloadBits-1)
}

func TestFindOwner(t *testing.T) {
	leaves := Complete([]Key{KeyFromAnchor([3]uint64{0, 0, 0}, 4)})
	r := rand.New(rand.NewSource(6))
	for i := 0; i < 100; i++ {
		key := KeyFromAnchor(randomAnchor(r, DeepestLevel), DeepestLevel)
		owner, ok := findOwner(leaves, key)
		if !ok {
			t.Fatalf("no owner for %v", key)
		}
		if !containsKey(owner, key) {
			t.Fatalf("owner %v does not contain %v", owner, key)
		}
	}
	if _, ok := findOwner(leaves[1:], Root.DeepestFirstDescendant()); ok {
		t.Fatal("found an owner before the first leaf")
	}
}

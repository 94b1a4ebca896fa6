package disttree

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadWriteTree(t *testing.T) {
	tree := buildForTest(t, 1, 500, 40, true)[0]

	var b bytes.Buffer
	if err := WriteTree(&b, tree); err != nil {
		t.Fatal(err)
	}
	restored, err := ReadTree(&b)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Balanced != tree.Balanced {
		t.Error("balanced flag lost")
	}
	if restored.Domain != tree.Domain {
		t.Errorf("domain %v != %v", restored.Domain, tree.Domain)
	}
	if !reflect.DeepEqual(restored.Keys, tree.Keys) {
		t.Error("keys differ after round trip")
	}
	if !reflect.DeepEqual(restored.Points, tree.Points) {
		t.Error("points differ after round trip")
	}
	if restored.Stats.NumLeaves != tree.Stats.NumLeaves {
		t.Error("restored statistics not recomputed")
	}
}

func TestSaveLoad(t *testing.T) {
	tree := buildForTest(t, 1, 200, 40, false)[0]
	path := filepath.Join(t.TempDir(), "tree.bin")
	err := Save(path, tree, func(w io.Writer, t *Tree) error {
		return WriteTree(w, t)
	})
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path, ReadTree)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Keys, tree.Keys) {
		t.Error("keys differ after file round trip")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.bin"), ReadTree); err == nil {
		t.Error("loading a missing file did not fail")
	}
}

func TestKeyJSON(t *testing.T) {
	key := KeyFromAnchor([3]uint64{1 << (DeepestLevel - 3), 0, 3 << (DeepestLevel - 3)}, 3)
	data, err := json.Marshal(key)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Anchor [3]uint64 `json:"anchor"`
		Level  int       `json:"level"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Anchor != key.Anchor() || decoded.Level != key.Level() {
		t.Fatalf("marshaled to %s", data)
	}
	var restored Key
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	if restored != key {
		t.Fatalf("round trip produced %v, want %v", restored, key)
	}
}

func TestTreeSummary(t *testing.T) {
	tree := buildForTest(t, 1, 300, 40, true)[0]
	summary := tree.Summary()
	if !summary.Balanced || summary.NumKeys != len(tree.Keys) ||
		summary.NumPoints != len(tree.Points) {
		t.Fatalf("bad summary: %+v", summary)
	}
	if _, err := json.Marshal(summary); err != nil {
		t.Fatal(err)
	}
}

package disttree

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

type treeHeader struct {
	Balanced  uint32
	NumKeys   uint64
	NumPoints uint64
	Origin    [3]float64
	Diameter  [3]float64
}

type pointRecord struct {
	Coord     [3]float64
	GlobalIdx int64
	Key       uint64
}

// WriteTree serializes one rank's tree in a binary format.
func WriteTree(w io.Writer, t *Tree) error {
	header := treeHeader{
		NumKeys:   uint64(len(t.Keys)),
		NumPoints: uint64(len(t.Points)),
		Origin:    [3]float64{t.Domain.Origin.X, t.Domain.Origin.Y, t.Domain.Origin.Z},
		Diameter:  [3]float64{t.Domain.Diameter.X, t.Domain.Diameter.Y, t.Domain.Diameter.Z},
	}
	if t.Balanced {
		header.Balanced = 1
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return errors.Wrap(err, "write tree")
	}
	keys := make([]uint64, len(t.Keys))
	for i, k := range t.Keys {
		keys[i] = k.Morton()
	}
	if err := binary.Write(w, binary.LittleEndian, keys); err != nil {
		return errors.Wrap(err, "write tree")
	}
	records := make([]pointRecord, len(t.Points))
	for i, p := range t.Points {
		records[i] = pointRecord{
			Coord:     [3]float64{p.Coord.X, p.Coord.Y, p.Coord.Z},
			GlobalIdx: int64(p.GlobalIdx),
			Key:       p.Key.Morton(),
		}
	}
	if err := binary.Write(w, binary.LittleEndian, records); err != nil {
		return errors.Wrap(err, "write tree")
	}
	return nil
}

// ReadTree reads the output written by WriteTree. The statistics of the
// restored tree are recomputed rather than stored.
func ReadTree(r io.Reader) (*Tree, error) {
	var header treeHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read tree")
	}
	keys := make([]uint64, header.NumKeys)
	if err := binary.Read(r, binary.LittleEndian, keys); err != nil {
		return nil, errors.Wrap(err, "read tree")
	}
	records := make([]pointRecord, header.NumPoints)
	if err := binary.Read(r, binary.LittleEndian, records); err != nil {
		return nil, errors.Wrap(err, "read tree")
	}
	tree := &Tree{
		Balanced: header.Balanced != 0,
		Keys:     make([]Key, len(keys)),
		Points:   make([]Point, len(records)),
		Domain: Domain{
			Origin:   model3d.XYZ(header.Origin[0], header.Origin[1], header.Origin[2]),
			Diameter: model3d.XYZ(header.Diameter[0], header.Diameter[1], header.Diameter[2]),
		},
	}
	for i, k := range keys {
		tree.Keys[i] = KeyFromMorton(k)
	}
	for i, rec := range records {
		tree.Points[i] = Point{
			Coord:     model3d.XYZ(rec.Coord[0], rec.Coord[1], rec.Coord[2]),
			GlobalIdx: int(rec.GlobalIdx),
			Key:       KeyFromMorton(rec.Key),
		}
	}
	tree.Stats = computeStatistics(tree, 0)
	return tree, nil
}

// Load reads a file with the given reader function.
func Load[T any](path string, f func(r io.Reader) (T, error)) (T, error) {
	r, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer r.Close()
	return f(bufio.NewReader(r))
}

// Save writes a file with the given writer function.
func Save[T any](path string, obj T, f func(w io.Writer, obj T) error) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := f(bw, obj); err != nil {
		w.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

type keyJSON struct {
	Anchor [3]uint64 `json:"anchor"`
	Level  int       `json:"level"`
	Morton uint64    `json:"morton"`
}

// MarshalJSON encodes the key as its anchor, level, and raw Morton value.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyJSON{
		Anchor: k.Anchor(),
		Level:  k.Level(),
		Morton: k.Morton(),
	})
}

// UnmarshalJSON decodes a key from its raw Morton value.
func (k *Key) UnmarshalJSON(data []byte) error {
	var decoded keyJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return errors.Wrap(err, "unmarshal key")
	}
	*k = KeyFromMorton(decoded.Morton)
	return nil
}

// A Summary is a JSON-friendly view of one rank's tree.
type Summary struct {
	Balanced  bool       `json:"balanced"`
	NumKeys   int        `json:"num_keys"`
	NumPoints int        `json:"num_points"`
	MaxLevel  int        `json:"max_level"`
	Origin    [3]float64 `json:"origin"`
	Diameter  [3]float64 `json:"diameter"`
}

// Summary returns a JSON-friendly view of the tree.
func (t *Tree) Summary() Summary {
	return Summary{
		Balanced:  t.Balanced,
		NumKeys:   len(t.Keys),
		NumPoints: len(t.Points),
		MaxLevel:  t.Stats.MaxLevel,
		Origin:    [3]float64{t.Domain.Origin.X, t.Domain.Origin.Y, t.Domain.Origin.Z},
		Diameter:  [3]float64{t.Domain.Diameter.X, t.Domain.Diameter.Y, t.Domain.Diameter.Z},
	}
}

package disttree

import (
	"fmt"
	"math/bits"

	"github.com/unixpickle/model3d/model3d"
)

const (
	// DeepestLevel is the finest refinement level representable by a Key.
	DeepestLevel = 16

	// LevelSize is the number of grid cells along each axis at DeepestLevel.
	LevelSize = 1 << DeepestLevel

	levelDisplacement = 15
	levelMask         = (1 << levelDisplacement) - 1
	payloadBits       = 3 * DeepestLevel
)

// Byte-wise lookup tables for interleaving and de-interleaving anchor
// coordinates along the Z-order curve. The encode tables map one coordinate
// byte to its bits spread with stride three; the decode tables map nine
// interleaved bits back to three coordinate bits.
var (
	XLookupEncode [256]uint64
	YLookupEncode [256]uint64
	ZLookupEncode [256]uint64
	XLookupDecode [512]uint64
	YLookupDecode [512]uint64
	ZLookupDecode [512]uint64

	// Directions contains the 26 non-zero offsets in {-1, 0, 1}^3, used to
	// enumerate the neighbors of a box.
	Directions [26][3]int64
)

func init() {
	for i := 0; i < 256; i++ {
		var spread uint64
		for bit := 0; bit < 8; bit++ {
			spread |= uint64(i>>bit&1) << (3 * bit)
		}
		ZLookupEncode[i] = spread
		YLookupEncode[i] = spread << 1
		XLookupEncode[i] = spread << 2
	}
	for i := 0; i < 512; i++ {
		var x, y, z uint64
		for bit := 0; bit < 3; bit++ {
			z |= uint64(i>>(3*bit)&1) << bit
			y |= uint64(i>>(3*bit+1)&1) << bit
			x |= uint64(i>>(3*bit+2)&1) << bit
		}
		XLookupDecode[i] = x
		YLookupDecode[i] = y
		ZLookupDecode[i] = z
	}
	idx := 0
	for x := int64(-1); x <= 1; x++ {
		for y := int64(-1); y <= 1; y++ {
			for z := int64(-1); z <= 1; z++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				Directions[idx] = [3]int64{x, y, z}
				idx++
			}
		}
	}
}

// A Key identifies one box of the octree over a Domain.
//
// The upper bits hold the box anchor at DeepestLevel resolution, interleaved
// along the Z-order curve; the low bits hold the refinement level. Keys sort
// in Morton order, with ancestors ordering before their descendants.
type Key uint64

// Root is the key of the box covering the entire domain.
const Root Key = 0

func newKey(payload uint64, level int) Key {
	return Key(payload<<levelDisplacement | uint64(level))
}

// lowMask covers the payload bits that are unused at the given level.
func lowMask(level int) uint64 {
	return (1 << (3 * (DeepestLevel - level))) - 1
}

// KeyFromMorton reinterprets a raw Morton value as a Key.
func KeyFromMorton(m uint64) Key {
	return Key(m)
}

// KeyFromAnchor creates the key of the box at the given level whose anchor
// contains the grid coordinates. Coordinates are at DeepestLevel resolution
// and are truncated to the level's alignment.
func KeyFromAnchor(anchor [3]uint64, level int) Key {
	if level < 0 || level > DeepestLevel {
		panic(fmt.Sprintf("level %d out of range", level))
	}
	for _, c := range anchor {
		if c >= LevelSize {
			panic(fmt.Sprintf("anchor coordinate %d out of range", c))
		}
	}
	payload := encodeAnchor(anchor) &^ lowMask(level)
	return newKey(payload, level)
}

// KeyFromPoint maps a coordinate inside the domain to the key of the box
// containing it at the given level.
func KeyFromPoint(c model3d.Coord3D, domain Domain, level int) Key {
	rel := c.Sub(domain.Origin)
	var anchor [3]uint64
	for i, v := range []float64{
		rel.X / domain.Diameter.X,
		rel.Y / domain.Diameter.Y,
		rel.Z / domain.Diameter.Z,
	} {
		g := int64(v * LevelSize)
		if g < 0 {
			g = 0
		} else if g >= LevelSize {
			g = LevelSize - 1
		}
		anchor[i] = uint64(g)
	}
	return KeyFromAnchor(anchor, level)
}

func encodeAnchor(anchor [3]uint64) uint64 {
	x, y, z := anchor[0], anchor[1], anchor[2]
	key := XLookupEncode[(x>>8)&0xff] | YLookupEncode[(y>>8)&0xff] | ZLookupEncode[(z>>8)&0xff]
	return key<<24 | XLookupEncode[x&0xff] | YLookupEncode[y&0xff] | ZLookupEncode[z&0xff]
}

func decodeAxis(payload uint64, table *[512]uint64) uint64 {
	var result uint64
	for i := 0; payload>>(9*uint(i)) != 0; i++ {
		result |= table[(payload>>(9*uint(i)))&0x1ff] << (3 * uint(i))
	}
	return result
}

// Morton returns the raw encoded value of the key.
func (k Key) Morton() uint64 {
	return uint64(k)
}

// Level returns the refinement level of the key, with 0 being the root.
func (k Key) Level() int {
	return int(uint64(k) & levelMask)
}

func (k Key) payload() uint64 {
	return uint64(k) >> levelDisplacement
}

// Anchor returns the grid coordinates of the box corner closest to the
// domain origin, at DeepestLevel resolution.
func (k Key) Anchor() [3]uint64 {
	p := k.payload()
	return [3]uint64{
		decodeAxis(p, &XLookupDecode),
		decodeAxis(p, &YLookupDecode),
		decodeAxis(p, &ZLookupDecode),
	}
}

// SideLength returns the box side length in DeepestLevel grid cells.
func (k Key) SideLength() uint64 {
	return 1 << (DeepestLevel - k.Level())
}

// Less reports whether k orders before other along the Morton curve.
// Ancestors order before their descendants.
func (k Key) Less(other Key) bool {
	if k.payload() != other.payload() {
		return k.payload() < other.payload()
	}
	return k.Level() < other.Level()
}

// Parent returns the key of the containing box one level up.
func (k Key) Parent() Key {
	level := k.Level()
	if level == 0 {
		panic("root key has no parent")
	}
	return newKey(k.payload()&^lowMask(level-1), level-1)
}

// FirstChild returns the child sharing the box anchor.
func (k Key) FirstChild() Key {
	if k.Level() == DeepestLevel {
		panic("key at deepest level has no children")
	}
	return newKey(k.payload(), k.Level()+1)
}

// Children returns the eight children of the key in Morton order.
func (k Key) Children() []Key {
	level := k.Level()
	if level == DeepestLevel {
		panic("key at deepest level has no children")
	}
	shift := 3 * (DeepestLevel - level - 1)
	children := make([]Key, 8)
	for i := uint64(0); i < 8; i++ {
		children[i] = newKey(k.payload()|i<<uint(shift), level+1)
	}
	return children
}

// Siblings returns all eight keys sharing the parent of k, including k.
func (k Key) Siblings() []Key {
	return k.Parent().Children()
}

// SiblingIndex returns k's position among its siblings in Morton order.
func (k Key) SiblingIndex() int {
	level := k.Level()
	if level == 0 {
		return 0
	}
	return int(k.payload() >> uint(3*(DeepestLevel-level)) & 7)
}

// Ancestors returns every proper ancestor of k up to and including Root.
func (k Key) Ancestors() []Key {
	ancestors := make([]Key, 0, k.Level())
	for cur := k; cur.Level() > 0; {
		cur = cur.Parent()
		ancestors = append(ancestors, cur)
	}
	return ancestors
}

func (k Key) truncateTo(level int) Key {
	return newKey(k.payload()&^lowMask(level), level)
}

// IsAncestorOf reports whether k properly contains other.
func (k Key) IsAncestorOf(other Key) bool {
	return k.Level() < other.Level() && other.truncateTo(k.Level()) == k
}

// IsDescendantOf reports whether other properly contains k.
func (k Key) IsDescendantOf(other Key) bool {
	return other.IsAncestorOf(k)
}

// FinestCommonAncestor returns the deepest key containing both k and other.
// The result may equal one of the arguments if one contains the other.
func (k Key) FinestCommonAncestor(other Key) Key {
	level := k.Level()
	if l := other.Level(); l < level {
		level = l
	}
	if xor := k.payload() ^ other.payload(); xor != 0 {
		group := (63 - bits.LeadingZeros64(xor)) / 3
		if byDiff := DeepestLevel - group - 1; byDiff < level {
			level = byDiff
		}
	}
	return k.truncateTo(level)
}

// DeepestFirstDescendant returns the first DeepestLevel key inside k's box.
func (k Key) DeepestFirstDescendant() Key {
	return newKey(k.payload(), DeepestLevel)
}

// DeepestLastDescendant returns the last DeepestLevel key inside k's box.
func (k Key) DeepestLastDescendant() Key {
	return newKey(k.payload()|lowMask(k.Level()), DeepestLevel)
}

// Neighbors returns the keys at the same level whose boxes share a face,
// edge, or corner with k's box. Boxes outside the domain are omitted.
func (k Key) Neighbors() []Key {
	anchor := k.Anchor()
	side := int64(k.SideLength())
	level := k.Level()
	neighbors := make([]Key, 0, len(Directions))
	for _, dir := range Directions {
		var shifted [3]uint64
		ok := true
		for i := 0; i < 3; i++ {
			c := int64(anchor[i]) + dir[i]*side
			if c < 0 || c >= LevelSize {
				ok = false
				break
			}
			shifted[i] = uint64(c)
		}
		if ok {
			neighbors = append(neighbors, KeyFromAnchor(shifted, level))
		}
	}
	return neighbors
}

// NearField returns the keys adjacent to k at the same level, i.e. its
// neighbors within the domain.
func (k Key) NearField() []Key {
	return k.Neighbors()
}

// InteractionList returns the same-level keys which are children of the
// parent's neighbors but not adjacent to k. Keys at levels zero and one
// have an empty interaction list.
func (k Key) InteractionList() []Key {
	if k.Level() < 2 {
		return nil
	}
	var list []Key
	for _, pn := range k.Parent().Neighbors() {
		for _, child := range pn.Children() {
			if child != k && !k.Adjacent(child) {
				list = append(list, child)
			}
		}
	}
	return list
}

// Adjacent reports whether the boxes of k and other touch or overlap. The
// keys may be at different levels. A key is not adjacent to itself.
func (k Key) Adjacent(other Key) bool {
	if k == other {
		return false
	}
	a, b := k.Anchor(), other.Anchor()
	sa, sb := int64(k.SideLength()), int64(other.SideLength())
	for i := 0; i < 3; i++ {
		if int64(a[i])+sa < int64(b[i]) || int64(b[i])+sb < int64(a[i]) {
			return false
		}
	}
	return true
}

// Box returns the spatial bounds of the key's box within the domain.
func (k Key) Box(domain Domain) (min, max model3d.Coord3D) {
	anchor := k.Anchor()
	side := float64(k.SideLength())
	cell := domain.Diameter.Scale(1.0 / LevelSize)
	min = domain.Origin.Add(model3d.XYZ(
		float64(anchor[0])*cell.X,
		float64(anchor[1])*cell.Y,
		float64(anchor[2])*cell.Z,
	))
	max = min.Add(model3d.XYZ(side*cell.X, side*cell.Y, side*cell.Z))
	return
}

// String formats the key as anchor coordinates and a level.
func (k Key) String() string {
	a := k.Anchor()
	return fmt.Sprintf("[%d %d %d]@%d", a[0], a[1], a[2], k.Level())
}

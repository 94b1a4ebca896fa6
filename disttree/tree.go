// Package disttree builds distributed octrees over 3D point sets.
//
// Points are encoded on the Z-order curve over a shared bounding domain,
// globally sorted across the ranks of a Communicator, and partitioned into
// a complete linear octree whose leaves hold at most NCrit points each.
// Every rank ends up owning a contiguous Morton range of leaves and the
// points inside them.
package disttree

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// DefaultNCrit is the default maximum number of points per leaf box.
const DefaultNCrit = 150

// A Tree is one rank's part of a distributed octree: a sorted linear list
// of leaf boxes and the points they contain. The ranks' key ranges are
// disjoint and together cover the whole domain.
type Tree struct {
	// Balanced indicates that adjacent leaves differ by at most one
	// refinement level within this rank's region.
	Balanced bool

	// Keys are the leaf boxes owned by this rank, in Morton order.
	Keys []Key

	// Points are the points owned by this rank, sorted by owning leaf.
	// Each point's Key field names its leaf.
	Points []Point

	// Domain is the global bounding box shared by all ranks.
	Domain Domain

	// Stats describes this rank's part of the tree.
	Stats Statistics
}

// NewDistributedTree builds a distributed octree from each rank's share of
// a global point set, with DefaultNCrit points per leaf. It is a collective
// operation: every rank of comm must call it with its own coordinates.
//
// With balanced set, leaves are additionally refined until adjacent boxes
// differ by at most one level.
func NewDistributedTree(coords []model3d.Coord3D, balanced bool, comm Communicator) (*Tree, error) {
	return BuildTree(coords, balanced, comm, DefaultNCrit)
}

// BuildTree is NewDistributedTree with an explicit leaf capacity.
func BuildTree(coords []model3d.Coord3D, balanced bool, comm Communicator, ncrit int) (*Tree, error) {
	start := time.Now()
	if comm == nil {
		return nil, errors.New("build tree: nil communicator")
	}
	if ncrit < 1 {
		return nil, errors.Errorf("build tree: ncrit must be positive, got %d", ncrit)
	}

	counts := comm.AllGatherUint64([]uint64{uint64(len(coords))})
	var offset, total uint64
	for rank, c := range counts {
		if rank < comm.Rank() {
			offset += c[0]
		}
		total += c[0]
	}
	if total == 0 {
		return nil, errors.New("build tree: no points on any rank")
	}

	domain := DomainFromGlobalPoints(coords, comm)
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{
			Coord:     c,
			GlobalIdx: int(offset) + i,
			Key:       KeyFromPoint(c, domain, DeepestLevel),
		}
	}

	points = ParallelSortByKey(points, comm)
	blocks := completeBlocktree(points, comm)
	leaves := splitBlocks(blocks, points, ncrit)
	if balanced {
		leaves = Balance(leaves)
	}

	for i := range points {
		owner, ok := findOwner(leaves, points[i].Key)
		if !ok {
			return nil, errors.Errorf("build tree: no leaf owns point %d", points[i].GlobalIdx)
		}
		points[i].Key = owner
	}
	SortByKey(points)

	tree := &Tree{
		Balanced: balanced,
		Keys:     leaves,
		Points:   points,
		Domain:   domain,
	}
	tree.Stats = computeStatistics(tree, time.Since(start))
	return tree, nil
}

// GatherTree merges every rank's part of the tree on rank 0 and returns
// the merged tree there; other ranks receive nil. Collective.
func GatherTree(t *Tree, comm Communicator) *Tree {
	gatheredKeys := comm.GatherKeys(t.Keys, 0)
	gatheredPoints := comm.GatherPoints(t.Points, 0)
	if comm.Rank() != 0 {
		return nil
	}
	merged := &Tree{
		Balanced: t.Balanced,
		Domain:   t.Domain,
	}
	for _, part := range gatheredKeys {
		merged.Keys = append(merged.Keys, part...)
	}
	for _, part := range gatheredPoints {
		merged.Points = append(merged.Points, part...)
	}
	SortKeys(merged.Keys)
	SortByKey(merged.Points)
	merged.Stats = computeStatistics(merged, t.Stats.CreationTime)
	return merged
}

// NumKeys returns the number of leaf boxes owned by this rank.
func (t *Tree) NumKeys() int {
	return len(t.Keys)
}

// NumPoints returns the number of points owned by this rank.
func (t *Tree) NumPoints() int {
	return len(t.Points)
}

// completeBlocktree builds each rank's share of a complete linear octree
// covering the whole domain. Coverage runs from this rank's first point to
// the next non-empty rank's first point; the outermost ranks extend their
// coverage to the domain corners. Collective.
func completeBlocktree(points []Point, comm Communicator) []Key {
	var boundary []Key
	if len(points) > 0 {
		boundary = []Key{points[0].Key}
	}
	firsts := comm.AllGatherKeys(boundary)
	if len(points) == 0 {
		return nil
	}
	first := points[0].Key
	last := points[len(points)-1].Key

	firstNonEmpty := 0
	for r, f := range firsts {
		if len(f) > 0 {
			firstNonEmpty = r
			break
		}
	}
	var next Key
	hasNext := false
	for r := comm.Rank() + 1; r < comm.Size(); r++ {
		if len(firsts[r]) > 0 {
			next = firsts[r][0]
			hasNext = true
			break
		}
	}

	var stitch []Key
	if comm.Rank() == firstNonEmpty {
		if corner := Root.DeepestFirstDescendant(); corner != first {
			stitch = append(stitch, corner)
		}
	}
	stitch = append(stitch, first)
	stitch = append(stitch, findSeeds(points)...)
	if last != first {
		stitch = append(stitch, last)
	}
	if hasNext {
		if next != last {
			stitch = append(stitch, next)
		}
	} else if corner := Root.DeepestLastDescendant(); corner != last {
		stitch = append(stitch, corner)
	}

	include := len(stitch)
	if hasNext && next != last {
		// The next rank's first key belongs to the next rank.
		include--
	}
	var blocks []Key
	for i, k := range stitch {
		if i > 0 {
			blocks = append(blocks, CompleteRegion(stitch[i-1], k)...)
		}
		if i < include {
			blocks = append(blocks, k)
		}
	}
	return Linearize(blocks)
}

// findSeeds returns the coarsest boxes of the complete region spanned by a
// rank's sorted points. They anchor the blocktree so that refinement does
// not start from deepest-level boxes.
func findSeeds(points []Point) []Key {
	if len(points) == 0 {
		return nil
	}
	region := CompleteRegion(points[0].Key, points[len(points)-1].Key)
	if len(region) == 0 {
		return nil
	}
	coarsest := DeepestLevel
	for _, k := range region {
		if l := k.Level(); l < coarsest {
			coarsest = l
		}
	}
	var seeds []Key
	for _, k := range region {
		if k.Level() == coarsest {
			seeds = append(seeds, k)
		}
	}
	return seeds
}

// splitBlocks refines blocks until each holds at most ncrit of the rank's
// sorted points or reaches DeepestLevel. Refinement of separate octants
// runs concurrently.
func splitBlocks(blocks []Key, points []Point, ncrit int) []Key {
	if len(blocks) == 0 {
		return nil
	}
	queue := newRefineQueue[[]Key](0)
	var refine func(block Key) []Key
	refine = func(block Key) []Key {
		lo, hi := pointRange(points, block)
		if hi-lo <= ncrit || block.Level() == DeepestLevel {
			return []Key{block}
		}
		children := block.Children()
		fns := make([]func() []Key, len(children))
		for i, child := range children {
			child := child
			fns[i] = func() []Key {
				return refine(child)
			}
		}
		return concatKeys(queue.Fork(fns...))
	}
	leaves := queue.Run(func() []Key {
		fns := make([]func() []Key, len(blocks))
		for i, block := range blocks {
			block := block
			fns[i] = func() []Key {
				return refine(block)
			}
		}
		return concatKeys(queue.Fork(fns...))
	})
	SortKeys(leaves)
	return leaves
}

func concatKeys(groups [][]Key) []Key {
	var out []Key
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// pointRange returns the half-open index range of the sorted points whose
// keys fall inside block.
func pointRange(points []Point, block Key) (lo, hi int) {
	lo = sort.Search(len(points), func(i int) bool {
		return !points[i].Key.Less(block)
	})
	dld := block.DeepestLastDescendant()
	hi = sort.Search(len(points), func(i int) bool {
		return dld.Less(points[i].Key)
	})
	return
}

// Package index keeps shapes in an R-tree keyed by their bounding boxes so
// they can be searched by area or by proximity.
package index

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/tingold/geoshape"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// pad widens every rectangle so points and axis-aligned lines, whose
	// boxes have zero width, still intersect queries that touch them.
	pad = 1e-9
)

// ErrInvalidBound is returned for a query bound with Min greater than Max.
var ErrInvalidBound = errors.New("index: invalid bound")

// Entry is an indexed shape. ID is its insertion order, starting at 0.
type Entry struct {
	ID    int
	Shape geoshape.Shape
	Bound orb.Bound
}

type item struct {
	entry Entry
	rect  rtreego.Rect
}

func (it *item) Bounds() rtreego.Rect {
	return it.rect
}

// Index is a thread-safe R-tree of shapes.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	next int
}

// New returns an empty index.
func New() *Index {
	return &Index{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
	}
}

// Insert adds shapes in order and returns the ID of the first one. Nothing
// is inserted if any shape has no bounding box.
func (ix *Index) Insert(shapes ...geoshape.Shape) (int, error) {
	items := make([]*item, len(shapes))
	for i, s := range shapes {
		b, err := geoshape.Bound(s)
		if err != nil {
			return 0, fmt.Errorf("shape %d: %w", i, err)
		}
		if !valid(b) {
			return 0, fmt.Errorf("shape %d: %w: shape has no coordinates", i, ErrInvalidBound)
		}
		rect, err := toRect(b)
		if err != nil {
			return 0, fmt.Errorf("shape %d: %w", i, err)
		}
		items[i] = &item{entry: Entry{Shape: s, Bound: b}, rect: rect}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	first := ix.next
	for _, it := range items {
		it.entry.ID = ix.next
		ix.next++
		ix.tree.Insert(it)
	}
	return first, nil
}

// Search returns the entries whose bounding boxes intersect b, ordered by ID.
// Boxes that only touch b count as intersecting.
func (ix *Index) Search(b orb.Bound) ([]Entry, error) {
	if !valid(b) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBound, b)
	}

	rect, err := toRect(b)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	results := ix.tree.SearchIntersect(rect)
	ix.mu.RUnlock()

	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		it, ok := r.(*item)
		if !ok || !it.entry.Bound.Intersects(b) {
			continue
		}
		entries = append(entries, it.entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Nearest returns up to k entries closest to c, nearest first. Distance is
// measured to each shape's bounding box in degrees.
func (ix *Index) Nearest(c geoshape.Coordinate, k int) []Entry {
	if k <= 0 {
		return nil
	}

	ix.mu.RLock()
	results := ix.tree.NearestNeighbors(k, rtreego.Point{c.Longitude, c.Latitude})
	ix.mu.RUnlock()

	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		if it, ok := r.(*item); ok {
			entries = append(entries, it.entry)
		}
	}
	return entries
}

// Len returns the number of indexed shapes.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Size()
}

// ParseBound parses "minLon,minLat,maxLon,maxLat" into a bound.
func ParseBound(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: want minLon,minLat,maxLon,maxLat, got %q", ErrInvalidBound, s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("%w: %v", ErrInvalidBound, err)
		}
		v[i] = f
	}

	b := orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
	if !valid(b) {
		return orb.Bound{}, fmt.Errorf("%w: %v", ErrInvalidBound, b)
	}
	return b, nil
}

func valid(b orb.Bound) bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1]
}

func toRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{b.Min[0] - pad, b.Min[1] - pad},
		rtreego.Point{b.Max[0] + pad, b.Max[1] + pad},
	)
}

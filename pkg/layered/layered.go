// Package layered computes positions for a directed graph drawn in ranks.
//
// The pipeline follows the usual Sugiyama phases, simplified for
// hierarchies: cycles are broken by reversing DFS back edges, nodes are
// ranked by longest path, a spanning forest is extracted and laid out as
// tidy trees whose subtrees are packed by contour, and ranks are stacked
// along the depth axis.
package layered

import (
	"math"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgchart/pkg/serrors"
)

type Direction string

const (
	TopBottom Direction = "TB"
	LeftRight Direction = "LR"
)

var (
	ErrUnknownNode      = serrors.NewError("LAYOUT_UNKNOWN_NODE", "edge references an unknown node", "")
	ErrUnknownDirection = serrors.NewError("LAYOUT_UNKNOWN_DIRECTION", "unknown layout direction", "")
)

type Node struct {
	ID     string
	Width  float64
	Height float64
}

type Edge struct {
	From string
	To   string
}

type Options struct {
	Direction Direction
	// NodeSep is the gap between neighbours in a rank.
	NodeSep float64
	// RankSep is the gap between consecutive ranks.
	RankSep float64
}

type Point struct {
	X float64
	Y float64
}

// Result holds node centers. The drawing's bounding box starts at (0,0).
type Result struct {
	Centers map[string]Point
	Ranks   map[string]int
	Width   float64
	Height  float64
}

type extent struct {
	left, right float64
}

type graph struct {
	opts  Options
	ids   []string
	nodes []Node
	out   [][]int
	in    [][]int

	rank     []int
	children [][]int
	rel      []float64
}

// Layout positions nodes. Duplicate node ids keep the first entry; self
// loops and parallel edges are ignored.
func Layout(nodes []Node, edges []Edge, opts Options) (Result, error) {
	if opts.Direction == "" {
		opts.Direction = TopBottom
	}
	if opts.Direction != TopBottom && opts.Direction != LeftRight {
		return Result{}, errors.Wrapf(ErrUnknownDirection, "direction %q", opts.Direction)
	}
	opts.NodeSep = math.Max(opts.NodeSep, 0)
	opts.RankSep = math.Max(opts.RankSep, 0)

	g := &graph{opts: opts}
	index := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if _, dup := index[n.ID]; dup {
			continue
		}
		index[n.ID] = len(g.nodes)
		g.ids = append(g.ids, n.ID)
		g.nodes = append(g.nodes, n)
	}
	g.out = make([][]int, len(g.nodes))
	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		from, ok := index[e.From]
		if !ok {
			return Result{}, errors.Wrapf(ErrUnknownNode, "edge %q -> %q: source", e.From, e.To)
		}
		to, ok := index[e.To]
		if !ok {
			return Result{}, errors.Wrapf(ErrUnknownNode, "edge %q -> %q: target", e.From, e.To)
		}
		key := [2]int{from, to}
		if from == to || seen[key] {
			continue
		}
		seen[key] = true
		g.out[from] = append(g.out[from], to)
	}

	res := Result{Centers: make(map[string]Point, len(g.nodes)), Ranks: make(map[string]int, len(g.nodes))}
	if len(g.nodes) == 0 {
		return res, nil
	}

	g.breakCycles()
	g.assignRanks()
	roots := g.spanningForest()
	breadth := g.placeForest(roots)
	depth, total := g.rankBands()

	minLeft := math.Inf(1)
	maxRight := math.Inf(-1)
	for i := range g.nodes {
		half := g.breadth(i) / 2
		minLeft = math.Min(minLeft, breadth[i]-half)
		maxRight = math.Max(maxRight, breadth[i]+half)
	}
	for i, id := range g.ids {
		b := breadth[i] - minLeft
		d := depth[g.rank[i]]
		if opts.Direction == LeftRight {
			res.Centers[id] = Point{X: d, Y: b}
		} else {
			res.Centers[id] = Point{X: b, Y: d}
		}
		res.Ranks[id] = g.rank[i]
	}
	span := maxRight - minLeft
	if opts.Direction == LeftRight {
		res.Width, res.Height = total, span
	} else {
		res.Width, res.Height = span, total
	}
	return res, nil
}

// breadth is the node's extent within its rank.
func (g *graph) breadth(i int) float64 {
	if g.opts.Direction == LeftRight {
		return g.nodes[i].Height
	}
	return g.nodes[i].Width
}

// depth is the node's extent across ranks.
func (g *graph) depth(i int) float64 {
	if g.opts.Direction == LeftRight {
		return g.nodes[i].Width
	}
	return g.nodes[i].Height
}

// breakCycles reverses every edge that closes a cycle in a DFS started
// from nodes in input order, leaving an acyclic graph.
func (g *graph) breakCycles() {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int, len(g.nodes))
	reversed := make([][2]int, 0)

	var visit func(v int)
	visit = func(v int) {
		state[v] = visiting
		kept := g.out[v][:0]
		for _, w := range g.out[v] {
			switch state[w] {
			case visiting:
				reversed = append(reversed, [2]int{w, v})
			case unvisited:
				kept = append(kept, w)
				visit(w)
			default:
				kept = append(kept, w)
			}
		}
		g.out[v] = kept
		state[v] = done
	}
	for v := range g.nodes {
		if state[v] == unvisited {
			visit(v)
		}
	}
	for _, e := range reversed {
		if !contains(g.out[e[0]], e[1]) {
			g.out[e[0]] = append(g.out[e[0]], e[1])
		}
	}

	g.in = make([][]int, len(g.nodes))
	for v, outs := range g.out {
		for _, w := range outs {
			g.in[w] = append(g.in[w], v)
		}
	}
}

// assignRanks gives every node the length of the longest path reaching it.
func (g *graph) assignRanks() {
	g.rank = make([]int, len(g.nodes))
	indeg := make([]int, len(g.nodes))
	queue := make([]int, 0, len(g.nodes))
	for v := range g.nodes {
		indeg[v] = len(g.in[v])
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.out[v] {
			if g.rank[v]+1 > g.rank[w] {
				g.rank[w] = g.rank[v] + 1
			}
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
}

// spanningForest picks, for each node, the first predecessor sitting on
// the rank directly above it. Nodes without one are forest roots.
func (g *graph) spanningForest() []int {
	g.children = make([][]int, len(g.nodes))
	var roots []int
	for v := range g.nodes {
		parent := -1
		for _, u := range g.in[v] {
			if g.rank[u] == g.rank[v]-1 {
				parent = u
				break
			}
		}
		if parent < 0 {
			roots = append(roots, v)
			continue
		}
		g.children[parent] = append(g.children[parent], v)
	}
	return roots
}

// place lays out the subtree of v relative to v's center and returns its
// contour, one extent per rank starting at v's rank.
func (g *graph) place(v int) []extent {
	half := g.breadth(v) / 2
	own := extent{left: -half, right: half}
	if len(g.children[v]) == 0 {
		return []extent{own}
	}

	pos, acc := g.pack(g.children[v])
	mid := (pos[0] + pos[len(pos)-1]) / 2
	for i, c := range g.children[v] {
		g.rel[c] = pos[i] - mid
	}
	contour := make([]extent, 0, len(acc)+1)
	contour = append(contour, own)
	for _, e := range acc {
		contour = append(contour, extent{left: e.left - mid, right: e.right - mid})
	}
	return contour
}

// pack places sibling subtrees left to right, each as close to the
// previous ones as their contours allow.
func (g *graph) pack(siblings []int) ([]float64, []extent) {
	pos := make([]float64, len(siblings))
	var acc []extent
	for i, s := range siblings {
		contour := g.place(s)
		if i == 0 {
			acc = append(acc, contour...)
			continue
		}
		shift := math.Inf(-1)
		for k := 0; k < len(acc) && k < len(contour); k++ {
			shift = math.Max(shift, acc[k].right+g.opts.NodeSep-contour[k].left)
		}
		pos[i] = shift
		for k, e := range contour {
			e.left += shift
			e.right += shift
			if k < len(acc) {
				acc[k].left = math.Min(acc[k].left, e.left)
				acc[k].right = math.Max(acc[k].right, e.right)
			} else {
				acc = append(acc, e)
			}
		}
	}
	return pos, acc
}

// placeForest returns the breadth coordinate of every node center.
func (g *graph) placeForest(roots []int) []float64 {
	g.rel = make([]float64, len(g.nodes))
	pos, _ := g.pack(roots)

	breadth := make([]float64, len(g.nodes))
	stack := make([]int, 0, len(g.nodes))
	for i, r := range roots {
		breadth[r] = pos[i]
		stack = append(stack, r)
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range g.children[v] {
			breadth[c] = breadth[v] + g.rel[c]
			stack = append(stack, c)
		}
	}
	return breadth
}

// rankBands returns the depth coordinate of each rank's center line and
// the total depth of the drawing.
func (g *graph) rankBands() ([]float64, float64) {
	maxRank := 0
	for _, r := range g.rank {
		maxRank = max(maxRank, r)
	}
	band := make([]float64, maxRank+1)
	for v, r := range g.rank {
		band[r] = math.Max(band[r], g.depth(v))
	}
	centers := make([]float64, len(band))
	offset := 0.0
	for r, size := range band {
		centers[r] = offset + size/2
		offset += size
		if r < len(band)-1 {
			offset += g.opts.RankSep
		}
	}
	return centers, offset
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

package forest

import (
	"math/rand/v2"
	"sort"
)

// Node is a flattened tree node. Leaves have Left == -1 and carry the
// normalized weighted class distribution in Value.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is one CART classifier stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// leaf walks x down to its leaf distribution. Values <= threshold go left.
func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the longest root-to-leaf path length.
func (t *Tree) Depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.Left < 0 {
			return d
		}
		return max(walk(n.Left, d+1), walk(n.Right, d+1))
	}
	return walk(0, 0)
}

type builder struct {
	X          [][]float64
	y          []int
	weights    []float64
	classes    int
	mtry       int
	params     Params
	rng        *rand.Rand
	importance []float64
	nodes      []Node
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	pos       int // rows[:pos] go left after sorting on feature
}

func (b *builder) build(rows []int) Tree {
	b.nodes = nil
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

func (b *builder) grow(rows []int, depth int) int {
	dist, total := b.distribution(rows)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1})

	if depth >= b.params.MaxDepth || len(rows) < b.params.MinSamplesSplit || pure(dist) || total == 0 {
		b.nodes[id].Value = normalize(dist)
		return id
	}

	best, ok := b.bestSplit(rows, dist, total)
	if !ok {
		b.nodes[id].Value = normalize(dist)
		return id
	}

	b.importance[best.feature] += best.gain
	sortRows(b.X, rows, best.feature)
	left := append([]int(nil), rows[:best.pos]...)
	right := append([]int(nil), rows[best.pos:]...)

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{Feature: best.feature, Threshold: best.threshold, Left: l, Right: r}
	return id
}

// bestSplit scans mtry random features for the threshold with the
// largest weighted Gini decrease that leaves MinSamplesLeaf rows per side.
func (b *builder) bestSplit(rows []int, dist []float64, total float64) (split, bool) {
	parent := gini(dist, total)
	minLeaf := b.params.MinSamplesLeaf

	features := make([]int, len(b.X[0]))
	for i := range features {
		features[i] = i
	}
	b.rng.Shuffle(len(features), func(i, j int) { features[i], features[j] = features[j], features[i] })

	var best split
	found := false
	sorted := append([]int(nil), rows...)
	left := make([]float64, b.classes)
	right := make([]float64, b.classes)

	for _, f := range features[:b.mtry] {
		sortRows(b.X, sorted, f)
		for c := range left {
			left[c] = 0
			right[c] = dist[c]
		}
		var wl float64

		for i := 0; i < len(sorted)-1; i++ {
			r := sorted[i]
			w := b.weights[b.y[r]]
			left[b.y[r]] += w
			right[b.y[r]] -= w
			wl += w

			if i+1 < minLeaf || len(sorted)-(i+1) < minLeaf {
				continue
			}
			v, next := b.X[r][f], b.X[sorted[i+1]][f]
			if v == next {
				continue
			}
			wr := total - wl
			if wl <= 0 || wr <= 0 {
				continue
			}
			child := (wl*gini(left, wl) + wr*gini(right, wr)) / total
			gain := (parent - child) * total
			if gain > best.gain+1e-12 {
				best = split{feature: f, threshold: (v + next) / 2, gain: gain, pos: i + 1}
				found = true
			}
		}
	}
	return best, found
}

func (b *builder) distribution(rows []int) ([]float64, float64) {
	dist := make([]float64, b.classes)
	var total float64
	for _, r := range rows {
		w := b.weights[b.y[r]]
		dist[b.y[r]] += w
		total += w
	}
	return dist, total
}

func sortRows(X [][]float64, rows []int, f int) {
	sort.SliceStable(rows, func(i, j int) bool { return X[rows[i]][f] < X[rows[j]][f] })
}

func gini(dist []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	g := 1.0
	for _, v := range dist {
		p := v / total
		g -= p * p
	}
	return g
}

func pure(dist []float64) bool {
	var nonzero int
	for _, v := range dist {
		if v > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

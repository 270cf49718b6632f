package bvh

import "sort"

// BuildMedianSplitTree builds a Tree over leaves by recursively splitting on the axis of
// greatest centroid spread at the median, assigning leaf ids by each AABB's position in the
// input slice. Bulk construction proper (SAH-optimized or otherwise) is a host concern this
// package does not own; this helper exists so tests and small callers have a working tree to
// hand RefitAndRefine without standing up a full external builder.
func BuildMedianSplitTree(leaves []AABB) *Tree {
	t := &Tree{leafCount: len(leaves)}
	if len(leaves) < 2 {
		return t
	}

	boxes := make([]AABB, len(leaves))
	copy(boxes, leaves)
	ids := make([]int32, len(leaves))
	for i := range ids {
		ids[i] = int32(i)
	}

	t.nodes = make([]Node, 0, len(leaves)-1)
	t.metanodes = make([]Metanode, 0, len(leaves)-1)
	t.buildRecursive(boxes, ids, -1, 0)

	return t
}

func (t *Tree) buildRecursive(boxes []AABB, ids []int32, parent int32, indexInParent int8) int32 {
	if len(boxes) == 1 {
		return signEncode(ids[0])
	}

	myIndex := int32(len(t.nodes))
	t.nodes = append(t.nodes, Node{})
	t.metanodes = append(t.metanodes, Metanode{Parent: parent, IndexInParent: indexInParent})

	axis := splitAxis(boxes)
	sortByCentroidAxis(boxes, ids, axis)
	mid := len(boxes) / 2

	leftIndex := t.buildRecursive(boxes[:mid], ids[:mid], myIndex, 0)
	rightIndex := t.buildRecursive(boxes[mid:], ids[mid:], myIndex, 1)

	leftMin, leftMax := unionAll(boxes[:mid])
	rightMin, rightMax := unionAll(boxes[mid:])

	node := &t.nodes[myIndex]
	node.A = ChildRef{Min: leftMin, Max: leftMax, Index: leftIndex, LeafCount: int32(mid)}
	node.B = ChildRef{Min: rightMin, Max: rightMax, Index: rightIndex, LeafCount: int32(len(boxes) - mid)}

	return myIndex
}

func splitAxis(boxes []AABB) int {
	min, max := centroid(boxes[0].Min, boxes[0].Max), centroid(boxes[0].Min, boxes[0].Max)
	for _, b := range boxes[1:] {
		c := centroid(b.Min, b.Max)
		min = minVec(min, c)
		max = maxVec(max, c)
	}
	extent := max.Sub(min)
	axis := 0
	if vecAxis(extent, 1) > vecAxis(extent, axis) {
		axis = 1
	}
	if vecAxis(extent, 2) > vecAxis(extent, axis) {
		axis = 2
	}
	return axis
}

func sortByCentroidAxis(boxes []AABB, ids []int32, axis int) {
	sort.Sort(&byCentroidAxis{boxes: boxes, ids: ids, axis: axis})
}

type byCentroidAxis struct {
	boxes []AABB
	ids   []int32
	axis  int
}

func (s *byCentroidAxis) Len() int { return len(s.boxes) }

func (s *byCentroidAxis) Less(i, j int) bool {
	ci := vecAxis(centroid(s.boxes[i].Min, s.boxes[i].Max), s.axis)
	cj := vecAxis(centroid(s.boxes[j].Min, s.boxes[j].Max), s.axis)
	return ci < cj
}

func (s *byCentroidAxis) Swap(i, j int) {
	s.boxes[i], s.boxes[j] = s.boxes[j], s.boxes[i]
	s.ids[i], s.ids[j] = s.ids[j], s.ids[i]
}

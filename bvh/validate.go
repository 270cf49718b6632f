package bvh

import "github.com/pkg/errors"

// Validate checks the tree's structural invariants: every RefineFlag is at rest (zero), every
// non-root node's metanode Parent/IndexInParent correctly names the child record that points back
// at it, the root's Parent is -1 and no other node's is, and every leaf id from 0 to LeafCount-1 is
// reachable from the root exactly once. It is meant to be called between frames by host code that
// wants an assertion-style sanity check, not from inside a hot pass.
func (t *Tree) Validate() error {
	if t.NodeCount() == 0 {
		return nil
	}

	for i := range t.metanodes {
		if t.metanodes[i].RefineFlag != 0 {
			return errors.Errorf("bvh: node %d has a nonzero RefineFlag outside a pass", i)
		}
	}

	root := t.Root()
	if t.metanodes[root].Parent != -1 {
		return errors.New("bvh: root metanode does not have Parent == -1")
	}
	for i := range t.metanodes {
		if int32(i) == root {
			continue
		}
		if t.metanodes[i].Parent == -1 {
			return errors.Errorf("bvh: node %d has Parent == -1 but is not the root", i)
		}
		if !t.childBackReferenceConsistent(int32(i)) {
			return errors.Errorf("bvh: node %d's parent back-reference does not match its parent's child record", i)
		}
	}

	seenLeaves := make(map[int32]bool, t.leafCount)
	var walkErr error
	var walk func(idx int32)
	walk = func(idx int32) {
		if walkErr != nil {
			return
		}
		if idx < 0 {
			leaf := -1 - idx
			if seenLeaves[leaf] {
				walkErr = errors.Errorf("bvh: leaf %d is reachable from more than one parent", leaf)
				return
			}
			seenLeaves[leaf] = true
			return
		}
		node := &t.nodes[idx]
		walk(node.A.Index)
		walk(node.B.Index)
	}
	walk(root)
	if walkErr != nil {
		return walkErr
	}
	if len(seenLeaves) != t.leafCount {
		return errors.Errorf("bvh: reachable leaf count %d does not match LeafCount %d", len(seenLeaves), t.leafCount)
	}

	return nil
}

func (t *Tree) childBackReferenceConsistent(idx int32) bool {
	parent := t.metanodes[idx].Parent
	if parent < 0 || int(parent) >= len(t.nodes) {
		return false
	}
	return t.childRef(parent, t.metanodes[idx].IndexInParent).Index == idx
}

package taxonomy

import (
	"sort"
	"time"
)

// CategoryNode is one node of the marketplace category tree. The tree owns
// Children; ParentID is a back-reference only (0 for top-level nodes).
type CategoryNode struct {
	ID       int
	Name     string
	ParentID int
	Children []*CategoryNode
}

// IsLeaf reports whether the node has no children. Only leaf categories are
// valid targets for product assignment.
func (n *CategoryNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Snapshot is one immutable view of the category tree. It is built once per
// refresh and replaced wholesale on the next one, never mutated in place.
type Snapshot struct {
	Roots     []*CategoryNode
	FetchedAt time.Time

	nodes  map[int]*CategoryNode
	leaves []*CategoryNode
}

// NewSnapshot indexes the given roots into a snapshot. Parent back-references
// are filled in during the walk, and children are sorted by id so that two
// snapshots built from the same tree are identical.
func NewSnapshot(roots []*CategoryNode) *Snapshot {
	s := &Snapshot{
		Roots:     roots,
		FetchedAt: time.Now(),
		nodes:     make(map[int]*CategoryNode),
	}

	var walk func(parent *CategoryNode, nodes []*CategoryNode)
	walk = func(parent *CategoryNode, nodes []*CategoryNode) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
		for _, node := range nodes {
			if parent != nil {
				node.ParentID = parent.ID
			}
			s.nodes[node.ID] = node
			if node.IsLeaf() {
				s.leaves = append(s.leaves, node)
			} else {
				walk(node, node.Children)
			}
		}
	}
	walk(nil, roots)

	return s
}

// Node returns the node with the given id.
func (s *Snapshot) Node(id int) (*CategoryNode, bool) {
	node, ok := s.nodes[id]
	return node, ok
}

// Leaves returns all leaf categories in id order.
func (s *Snapshot) Leaves() []*CategoryNode {
	return s.leaves
}

// Len returns the total number of nodes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Path returns the display names from the root down to the given node.
func (s *Snapshot) Path(id int) []string {
	var parts []string
	for {
		node, ok := s.nodes[id]
		if !ok {
			break
		}
		parts = append([]string{node.Name}, parts...)
		if node.ParentID == 0 {
			break
		}
		id = node.ParentID
	}
	return parts
}

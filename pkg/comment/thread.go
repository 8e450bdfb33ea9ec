package comment

import "taskboard-api/pkg/model"

// Node is one comment plus its nested replies.
type Node struct {
	model.Comment
	Replies []*Node `json:"replies,omitempty"`
}

// BuildThread nests a flat comment list into a tree in one pass over a
// parent→children index. Input order is preserved at every level, so a
// newest-first list yields newest-first siblings. A reply whose parent is
// missing from the list is promoted to the top level rather than dropped.
func BuildThread(comments []model.Comment) []*Node {
	nodes := make(map[string]*Node, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &Node{Comment: comments[i]}
	}

	var roots []*Node
	for i := range comments {
		node := nodes[comments[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return roots
}

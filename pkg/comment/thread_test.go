package comment

import (
	"testing"

	"taskboard-api/pkg/model"
)

func flat(id string, parentID string) model.Comment {
	c := model.Comment{ID: id}
	if parentID != "" {
		c.ParentID = &parentID
	}
	return c
}

func TestBuildThreadNestsRepliesRegardlessOfOrder(t *testing.T) {
	// Replies appear before their parents, as a newest-first listing has it.
	comments := []model.Comment{
		flat("reply-deep", "reply-1"),
		flat("reply-2", "root-a"),
		flat("reply-1", "root-a"),
		flat("root-b", ""),
		flat("root-a", ""),
	}

	roots := BuildThread(comments)
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].ID != "root-b" || roots[1].ID != "root-a" {
		t.Fatalf("input order not preserved at top level: %s, %s", roots[0].ID, roots[1].ID)
	}

	rootA := roots[1]
	if len(rootA.Replies) != 2 {
		t.Fatalf("expected 2 replies under root-a, got %d", len(rootA.Replies))
	}
	if rootA.Replies[0].ID != "reply-2" || rootA.Replies[1].ID != "reply-1" {
		t.Fatalf("sibling order not preserved: %s, %s", rootA.Replies[0].ID, rootA.Replies[1].ID)
	}
	if len(rootA.Replies[1].Replies) != 1 || rootA.Replies[1].Replies[0].ID != "reply-deep" {
		t.Fatalf("third-level reply not nested under reply-1")
	}
}

func TestBuildThreadPromotesOrphans(t *testing.T) {
	comments := []model.Comment{
		flat("orphan", "gone"),
		flat("root", ""),
	}

	roots := BuildThread(comments)
	if len(roots) != 2 {
		t.Fatalf("orphaned reply should surface at top level, got %d roots", len(roots))
	}
	if roots[0].ID != "orphan" {
		t.Fatalf("orphan lost its position: %s", roots[0].ID)
	}
}

func TestBuildThreadEmpty(t *testing.T) {
	if roots := BuildThread(nil); len(roots) != 0 {
		t.Fatalf("expected no roots for empty input, got %d", len(roots))
	}
}

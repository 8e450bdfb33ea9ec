package orm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard-api/pkg/model"
)

func insertComment(t *testing.T, o *CommentORM, taskID string, mutate func(*model.Comment)) *model.Comment {
	t.Helper()
	c := &model.Comment{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		AuthorID:    uuid.NewString(),
		AuthorEmail: "author@example.com",
		Content:     "Looks good",
		CreatedAt:   time.Now(),
	}
	if mutate != nil {
		mutate(c)
	}
	if err := o.Create(context.Background(), c); err != nil {
		t.Fatalf("insert comment: %v", err)
	}
	return c
}

func TestListByTaskNewestFirst(t *testing.T) {
	o := NewCommentORM(newTestDB(t))
	ctx := context.Background()
	taskID := uuid.NewString()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		i := i
		insertComment(t, o, taskID, func(c *model.Comment) {
			c.Content = fmt.Sprintf("comment %d", i)
			c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
	}
	insertComment(t, o, uuid.NewString(), nil)

	comments, err := o.ListByTask(ctx, taskID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("expected 3 comments for the task, got %d", len(comments))
	}
	if comments[0].Content != "comment 2" || comments[2].Content != "comment 0" {
		t.Fatalf("comments not newest-first: %s .. %s", comments[0].Content, comments[2].Content)
	}
}

func TestUpdateContentMarksEdited(t *testing.T) {
	o := NewCommentORM(newTestDB(t))
	ctx := context.Background()

	c := insertComment(t, o, uuid.NewString(), nil)
	if c.Edited() {
		t.Fatalf("fresh comment should not read as edited")
	}

	editedAt := time.Now()
	if err := o.UpdateContent(ctx, c.ID, "Looks even better", editedAt); err != nil {
		t.Fatalf("update: %v", err)
	}
	found, err := o.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found.Content != "Looks even better" {
		t.Fatalf("content not updated: %q", found.Content)
	}
	if !found.Edited() {
		t.Fatalf("edited comment should carry an updated_at stamp")
	}

	if err := o.UpdateContent(ctx, uuid.NewString(), "x", editedAt); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found for unknown id, got %v", err)
	}
}

func TestDeleteAndListByParent(t *testing.T) {
	o := NewCommentORM(newTestDB(t))
	ctx := context.Background()
	taskID := uuid.NewString()

	root := insertComment(t, o, taskID, nil)
	reply1 := insertComment(t, o, taskID, func(c *model.Comment) { c.ParentID = &root.ID })
	insertComment(t, o, taskID, func(c *model.Comment) { c.ParentID = &root.ID })
	insertComment(t, o, taskID, func(c *model.Comment) { c.ParentID = &reply1.ID })

	replies, err := o.ListByParent(ctx, root.ID)
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	if len(replies) != 2 {
		t.Fatalf("expected 2 direct replies, got %d", len(replies))
	}

	if err := o.Delete(ctx, reply1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := o.GetByID(ctx, reply1.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted comment still readable: %v", err)
	}
	if err := o.Delete(ctx, reply1.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("double delete should report record-not-found, got %v", err)
	}

	if err := o.DeleteByTask(ctx, taskID); err != nil {
		t.Fatalf("delete by task: %v", err)
	}
	remaining, err := o.ListByTask(ctx, taskID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected all task comments removed, %d left", len(remaining))
	}
}

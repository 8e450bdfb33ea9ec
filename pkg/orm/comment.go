package orm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskboard-api/pkg/model"
)

// CommentORM handles CRUD on a task's comment rows.
type CommentORM struct {
	db *gorm.DB
}

func NewCommentORM(db *gorm.DB) *CommentORM {
	return &CommentORM{db: db}
}

func (o *CommentORM) Create(ctx context.Context, comment *model.Comment) error {
	if err := o.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (o *CommentORM) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	var comment model.Comment
	if err := o.db.WithContext(ctx).Where("id = ?", commentID).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByTask returns the flat comment set for a task, newest first. Thread
// nesting is assembled by the comment service.
func (o *CommentORM) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := o.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// UpdateContent edits a comment body and stamps updated_at, which is what
// marks it as edited.
func (o *CommentORM) UpdateContent(ctx context.Context, commentID, content string, editedAt time.Time) error {
	res := o.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", commentID).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_at": editedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (o *CommentORM) Delete(ctx context.Context, commentID string) error {
	res := o.db.WithContext(ctx).Where("id = ?", commentID).Delete(&model.Comment{})
	if res.Error != nil {
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByParent returns the direct replies of a comment, used when deleting
// a subtree.
func (o *CommentORM) ListByParent(ctx context.Context, parentID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := o.db.WithContext(ctx).Where("parent_id = ?", parentID).Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return comments, nil
}

func (o *CommentORM) DeleteByTask(ctx context.Context, taskID string) error {
	if err := o.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&model.Comment{}).Error; err != nil {
		return fmt.Errorf("delete task comments: %w", err)
	}
	return nil
}

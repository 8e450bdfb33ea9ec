package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"taskboard-api/pkg/email"
	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
	"taskboard-api/pkg/orm"
)

var (
	ErrEmptyContent = errors.New("comment content is required")
	ErrNotAuthor    = errors.New("comment belongs to another author")
	ErrNotFound     = errors.New("comment not found")
)

// Service implements the detail modal's comment operations: threaded
// listing, add, edit, delete. Every write publishes a change event scoped
// to the owning task.
type Service struct {
	comments *orm.CommentORM
	tasks    *orm.TaskORM
	events   *event.Publisher
	notify   bool
}

func NewService(db *gorm.DB, events *event.Publisher) *Service {
	return &Service{
		comments: orm.NewCommentORM(db),
		tasks:    orm.NewTaskORM(db),
		events:   events,
		notify:   true,
	}
}

// ListThread returns a task's comments nested newest-first at each level.
func (s *Service) ListThread(ctx context.Context, taskID string) ([]*Node, error) {
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return BuildThread(comments), nil
}

// Add creates a comment, optionally as a reply. Replying triggers a
// best-effort email to the parent comment's author.
func (s *Service) Add(ctx context.Context, taskID string, parentID *string, authorID, authorEmail, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %s not found", taskID)
		}
		return nil, err
	}

	var parent *model.Comment
	if parentID != nil {
		found, err := s.comments.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if found.TaskID != taskID {
			return nil, fmt.Errorf("parent comment belongs to task %s", found.TaskID)
		}
		parent = found
	}

	created := &model.Comment{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		ParentID:    parentID,
		AuthorID:    authorID,
		AuthorEmail: authorEmail,
		Content:     content,
		CreatedAt:   time.Now(),
	}
	if err := s.comments.Create(ctx, created); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, event.ChangeEvent{
		Table:     event.TableComments,
		Action:    event.ActionInsert,
		TaskID:    taskID,
		CommentID: created.ID,
	})

	if parent != nil && s.notify && parent.AuthorEmail != "" && parent.AuthorEmail != authorEmail {
		go func(to, replyBody string) {
			if err := email.SendReplyNotification(to, replyBody); err != nil {
				log.Error().Err(err).Msg("Failed to send reply notification")
			}
		}(parent.AuthorEmail, content)
	}

	return created, nil
}

// Edit replaces a comment's content and stamps it as edited. Only the
// original author may edit.
func (s *Service) Edit(ctx context.Context, commentID, authorID, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	existing, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if existing.AuthorID != authorID {
		return nil, ErrNotAuthor
	}

	editedAt := time.Now()
	if err := s.comments.UpdateContent(ctx, commentID, content, editedAt); err != nil {
		return nil, err
	}
	existing.Content = content
	existing.UpdatedAt = &editedAt

	s.events.Publish(ctx, event.ChangeEvent{
		Table:     event.TableComments,
		Action:    event.ActionUpdate,
		TaskID:    existing.TaskID,
		CommentID: commentID,
	})
	return existing, nil
}

// Delete removes a comment and its reply subtree so the thread never holds
// dangling parent references. Only the original author may delete.
func (s *Service) Delete(ctx context.Context, commentID, authorID string) error {
	existing, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if existing.AuthorID != authorID {
		return ErrNotAuthor
	}

	if err := s.deleteSubtree(ctx, commentID); err != nil {
		return err
	}

	s.events.Publish(ctx, event.ChangeEvent{
		Table:     event.TableComments,
		Action:    event.ActionDelete,
		TaskID:    existing.TaskID,
		CommentID: commentID,
	})
	return nil
}

func (s *Service) deleteSubtree(ctx context.Context, commentID string) error {
	replies, err := s.comments.ListByParent(ctx, commentID)
	if err != nil {
		return err
	}
	for _, reply := range replies {
		if err := s.deleteSubtree(ctx, reply.ID); err != nil {
			return err
		}
	}
	return s.comments.Delete(ctx, commentID)
}

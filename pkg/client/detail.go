package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/comment"
	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
)

// Detail is the task modal's state: one task's full row plus its comment
// thread. While open it holds two scoped realtime subscriptions — the
// task's row updates and its comment set — each refetching the affected
// resource wholesale. Close releases both.
type Detail struct {
	mu     sync.Mutex
	gw     Gateway
	taskID string

	task   *model.Task
	thread []*comment.Node

	releases []func()
	onChange func()
}

// OpenDetail loads the task and its thread, then subscribes to their
// change events. onChange fires after every refresh, outside the lock.
func OpenDetail(ctx context.Context, gw Gateway, events EventSource, taskID string, onChange func()) (*Detail, error) {
	d := &Detail{
		gw:       gw,
		taskID:   taskID,
		onChange: onChange,
	}

	if err := d.refreshTask(ctx); err != nil {
		return nil, err
	}
	if err := d.refreshThread(ctx); err != nil {
		return nil, err
	}

	if events != nil {
		releaseTask, err := events.Subscribe(
			event.Scope{Table: event.TableTasks, TaskID: taskID},
			func(event.ChangeEvent) { d.refetch(d.refreshTask) },
		)
		if err != nil {
			return nil, err
		}
		d.releases = append(d.releases, releaseTask)

		releaseComments, err := events.Subscribe(
			event.Scope{Table: event.TableComments, TaskID: taskID},
			func(event.ChangeEvent) { d.refetch(d.refreshThread) },
		)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.releases = append(d.releases, releaseComments)
	}

	return d, nil
}

// Close releases the modal's realtime subscriptions.
func (d *Detail) Close() {
	d.mu.Lock()
	releases := d.releases
	d.releases = nil
	d.mu.Unlock()
	for _, release := range releases {
		release()
	}
}

func (d *Detail) Task() model.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.task
}

func (d *Detail) Thread() []*comment.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.thread
}

// AddComment posts a comment (top-level when parentID is nil) and
// refetches the thread.
func (d *Detail) AddComment(ctx context.Context, parentID *string, content string) error {
	if _, err := d.gw.AddComment(ctx, d.taskID, parentID, content); err != nil {
		return err
	}
	return d.refreshAndNotify(ctx, d.refreshThread)
}

func (d *Detail) EditComment(ctx context.Context, commentID, content string) error {
	if _, err := d.gw.EditComment(ctx, commentID, content); err != nil {
		return err
	}
	return d.refreshAndNotify(ctx, d.refreshThread)
}

func (d *Detail) DeleteComment(ctx context.Context, commentID string) error {
	if err := d.gw.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	return d.refreshAndNotify(ctx, d.refreshThread)
}

// ChangeStatus persists a status change from the modal and refetches the
// task row.
func (d *Detail) ChangeStatus(ctx context.Context, status model.Status) error {
	if err := d.gw.UpdateTaskStatus(ctx, d.taskID, status); err != nil {
		return err
	}
	return d.refreshAndNotify(ctx, d.refreshTask)
}

func (d *Detail) refreshTask(ctx context.Context) error {
	found, err := d.gw.GetTask(ctx, d.taskID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.task = found
	d.mu.Unlock()
	return nil
}

func (d *Detail) refreshThread(ctx context.Context) error {
	thread, err := d.gw.ListCommentThread(ctx, d.taskID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.thread = thread
	d.mu.Unlock()
	return nil
}

func (d *Detail) refreshAndNotify(ctx context.Context, refresh func(context.Context) error) error {
	if err := refresh(ctx); err != nil {
		return err
	}
	if d.onChange != nil {
		d.onChange()
	}
	return nil
}

// refetch runs a refresh off a realtime event with its own deadline.
func (d *Detail) refetch(refresh func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := d.refreshAndNotify(ctx, refresh); err != nil {
		log.Error().Err(err).Str("taskId", d.taskID).Msg("Realtime refetch failed")
	}
}

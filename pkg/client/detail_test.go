package client

import (
	"context"
	"sync"
	"testing"

	"taskboard-api/pkg/event"
	"taskboard-api/pkg/model"
)

type fakeSubscription struct {
	scope    event.Scope
	fn       func(event.ChangeEvent)
	released bool
}

type fakeEventSource struct {
	mu   sync.Mutex
	subs []*fakeSubscription
}

func (f *fakeEventSource) Subscribe(scope event.Scope, fn func(event.ChangeEvent)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSubscription{scope: scope, fn: fn}
	f.subs = append(f.subs, sub)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		sub.released = true
	}, nil
}

func (f *fakeEventSource) emit(ev event.ChangeEvent) {
	f.mu.Lock()
	subs := append([]*fakeSubscription(nil), f.subs...)
	f.mu.Unlock()
	for _, sub := range subs {
		if !sub.released && sub.scope.Matches(ev) {
			sub.fn(ev)
		}
	}
}

func newDetailFixture(t *testing.T) (*fakeGateway, *fakeEventSource, string) {
	t.Helper()
	gw := newFakeGateway()
	gw.seed(model.StatusToDo, 1, "Writing")
	taskID := gw.tasks[model.StatusToDo][0].ID
	gw.comments = []model.Comment{
		{ID: "c-root", TaskID: taskID, AuthorEmail: "ana@example.com", Content: "First question"},
	}
	return gw, &fakeEventSource{}, taskID
}

func TestOpenDetailLoadsTaskAndThread(t *testing.T) {
	gw, events, taskID := newDetailFixture(t)

	detail, err := OpenDetail(context.Background(), gw, events, taskID, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer detail.Close()

	if detail.Task().ID != taskID {
		t.Fatalf("loaded wrong task %s", detail.Task().ID)
	}
	thread := detail.Thread()
	if len(thread) != 1 || thread[0].ID != "c-root" {
		t.Fatalf("unexpected thread %+v", thread)
	}
	if len(events.subs) != 2 {
		t.Fatalf("expected task and comment subscriptions, got %d", len(events.subs))
	}
}

func TestDetailCommentWriteRefetchesThread(t *testing.T) {
	gw, events, taskID := newDetailFixture(t)

	changes := 0
	detail, err := OpenDetail(context.Background(), gw, events, taskID, func() { changes++ })
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer detail.Close()

	if err := detail.AddComment(context.Background(), nil, "On it"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if len(detail.Thread()) != 2 {
		t.Fatalf("expected thread refetched with 2 roots, got %d", len(detail.Thread()))
	}
	if changes != 1 {
		t.Fatalf("expected one change notification, got %d", changes)
	}

	parentID := "c-root"
	if err := detail.AddComment(context.Background(), &parentID, "Replying"); err != nil {
		t.Fatalf("add reply: %v", err)
	}
	var root *struct{}
	for _, node := range detail.Thread() {
		if node.ID == "c-root" {
			if len(node.Replies) != 1 || node.Replies[0].Content != "Replying" {
				t.Fatalf("reply not nested under parent: %+v", node.Replies)
			}
			root = &struct{}{}
		}
	}
	if root == nil {
		t.Fatalf("root comment missing after reply")
	}
}

func TestDetailRealtimeEventTriggersRefetch(t *testing.T) {
	gw, events, taskID := newDetailFixture(t)

	detail, err := OpenDetail(context.Background(), gw, events, taskID, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer detail.Close()

	// Another client adds a comment; we only hear about it via the feed.
	gw.mu.Lock()
	gw.comments = append(gw.comments, model.Comment{ID: "c-remote", TaskID: taskID, Content: "From elsewhere"})
	gw.mu.Unlock()

	events.emit(event.ChangeEvent{Table: event.TableComments, Action: event.ActionInsert, TaskID: taskID, CommentID: "c-remote"})

	if len(detail.Thread()) != 2 {
		t.Fatalf("expected thread refetched after realtime event, got %d roots", len(detail.Thread()))
	}

	// An event for a different task must not match our scopes.
	gw.mu.Lock()
	gw.comments = append(gw.comments, model.Comment{ID: "c-other", TaskID: "other-task", Content: "Unrelated"})
	gw.mu.Unlock()
	events.emit(event.ChangeEvent{Table: event.TableComments, Action: event.ActionInsert, TaskID: "other-task", CommentID: "c-other"})

	if len(detail.Thread()) != 2 {
		t.Fatalf("unrelated event changed the thread")
	}
}

func TestDetailCloseReleasesSubscriptions(t *testing.T) {
	gw, events, taskID := newDetailFixture(t)

	detail, err := OpenDetail(context.Background(), gw, events, taskID, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	detail.Close()

	for i, sub := range events.subs {
		if !sub.released {
			t.Fatalf("subscription %d not released on close", i)
		}
	}

	// Close is idempotent.
	detail.Close()
}

func TestDetailChangeStatusRefetchesTask(t *testing.T) {
	gw, events, taskID := newDetailFixture(t)

	detail, err := OpenDetail(context.Background(), gw, events, taskID, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer detail.Close()

	// Reflect the status change in the backing data so the refetch is
	// observable.
	gw.mu.Lock()
	gw.tasks[model.StatusToDo][0].Status = model.StatusDone
	gw.mu.Unlock()

	if err := detail.ChangeStatus(context.Background(), model.StatusDone); err != nil {
		t.Fatalf("change status: %v", err)
	}
	if detail.Task().Status != model.StatusDone {
		t.Fatalf("task row not refetched, status still %s", detail.Task().Status)
	}
	calls := gw.statusCalls()
	if len(calls) != 1 || calls[0].status != model.StatusDone {
		t.Fatalf("unexpected status calls %+v", calls)
	}
}

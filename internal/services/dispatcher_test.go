package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cafe-pickup-service/internal/adapters/mail"
	"cafe-pickup-service/internal/domain"
)

func waitResult(t *testing.T, done <-chan BulkResult) BulkResult {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("bulk job did not complete in time")
		return BulkResult{}
	}
}

func TestDispatcherEnqueuePending(t *testing.T) {
	repo := newMockRepo()
	sender := mail.NewMockSender()
	d := NewDispatcher(repo, NewNotifier(repo, sender), 4)
	defer d.Shutdown()

	cafePackage(repo)
	second := cafePackage(repo)
	second.CafeEmailSent = true
	if err := repo.Update(context.Background(), second); err != nil {
		t.Fatalf("update: %v", err)
	}
	seedPackage(repo, domain.StatusWarehouseArrived)

	queued, done, err := d.EnqueuePending(context.Background(), domain.NotifyCafeArrival)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if queued != 1 {
		t.Fatalf("queued = %d, want 1 (sent and warehouse packages excluded)", queued)
	}

	res := waitResult(t, done)
	if res.Sent != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want 1 sent", res)
	}
	if len(sender.Sent()) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(sender.Sent()))
	}
}

func TestDispatcherEnqueuePendingEmpty(t *testing.T) {
	repo := newMockRepo()
	d := NewDispatcher(repo, NewNotifier(repo, mail.NewMockSender()), 4)
	defer d.Shutdown()

	queued, done, err := d.EnqueuePending(context.Background(), domain.NotifyCafeArrival)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if queued != 0 {
		t.Fatalf("queued = %d, want 0", queued)
	}

	res := waitResult(t, done)
	if res.Sent != 0 || res.Queued != 0 {
		t.Fatalf("result = %+v, want zero job", res)
	}
}

func TestDispatcherEnqueueIDsSkipsAlreadySent(t *testing.T) {
	repo := newMockRepo()
	sender := mail.NewMockSender()
	d := NewDispatcher(repo, NewNotifier(repo, sender), 4)
	defer d.Shutdown()

	first := seedPackage(repo, domain.StatusWarehouseArrived)
	second := seedPackage(repo, domain.StatusWarehouseArrived)
	second.WarehouseEmailSent = true
	if err := repo.Update(context.Background(), second); err != nil {
		t.Fatalf("update: %v", err)
	}

	queued, done, err := d.EnqueueIDs(context.Background(), domain.NotifyWarehouseArrival, []int64{first.ID, second.ID, 404})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// missing IDs drop out at lookup, sent flags drop out in the worker
	if queued != 2 {
		t.Fatalf("queued = %d, want 2", queued)
	}

	res := waitResult(t, done)
	if res.Sent != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want exactly 1 sent", res)
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	repo := newMockRepo()
	sender := &mail.MockSender{Err: errors.New("smtp unreachable")}
	d := NewDispatcher(repo, NewNotifier(repo, sender), 4)
	defer d.Shutdown()

	cafePackage(repo)
	cafePackage(repo)

	queued, done, err := d.EnqueuePending(context.Background(), domain.NotifyCafeArrival)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if queued != 2 {
		t.Fatalf("queued = %d, want 2", queued)
	}

	res := waitResult(t, done)
	if res.Sent != 0 || res.Failed != 2 {
		t.Fatalf("result = %+v, want 2 failed", res)
	}
}

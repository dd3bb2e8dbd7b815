package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

// ErrQueueFull means the dispatcher could not accept another bulk job
// without blocking the request.
var ErrQueueFull = errors.New("bulk send queue is full")

// BulkResult is the eventual outcome of one bulk job, readable from the
// job's completion channel.
type BulkResult struct {
	Queued int
	Sent   int
	Failed int
}

type bulkJob struct {
	kind     domain.NotificationKind
	packages []*domain.Package
	done     chan BulkResult
}

// Dispatcher runs bulk email jobs on a single background worker.
//
// Enqueueing is fire-and-forget from the request's point of view: the caller
// gets back only how many packages were queued. Each job still exposes a
// completion channel, so the best-effort contract is observable instead of
// incidental. There is no cancellation and no guarantee a job finishes
// before process exit.
type Dispatcher struct {
	repo     ports.PackageRepository
	notifier *Notifier

	jobs chan *bulkJob
	wg   sync.WaitGroup

	closeOnce sync.Once
}

func NewDispatcher(repo ports.PackageRepository, notifier *Notifier, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 16
	}
	d := &Dispatcher{
		repo:     repo,
		notifier: notifier,
		jobs:     make(chan *bulkJob, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// EnqueuePending queues one bulk job covering every package at the kind's
// stage whose sent flag is still false, and returns that count plus the
// job's completion channel. A zero count queues nothing.
func (d *Dispatcher) EnqueuePending(ctx context.Context, kind domain.NotificationKind) (int, <-chan BulkResult, error) {
	pkgs, err := d.repo.ListPendingEmail(ctx, kind)
	if err != nil {
		return 0, nil, err
	}
	return d.enqueue(kind, pkgs)
}

// EnqueueIDs queues a bulk job for the listed packages regardless of stage,
// still skipping any whose sent flag is already true. Used after imports.
func (d *Dispatcher) EnqueueIDs(ctx context.Context, kind domain.NotificationKind, ids []int64) (int, <-chan BulkResult, error) {
	pkgs, err := d.repo.ListByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	return d.enqueue(kind, pkgs)
}

func (d *Dispatcher) enqueue(kind domain.NotificationKind, pkgs []*domain.Package) (int, <-chan BulkResult, error) {
	done := make(chan BulkResult, 1)
	if len(pkgs) == 0 {
		done <- BulkResult{}
		close(done)
		return 0, done, nil
	}

	job := &bulkJob{kind: kind, packages: pkgs, done: done}
	select {
	case d.jobs <- job:
	default:
		return 0, nil, ErrQueueFull
	}
	return len(pkgs), done, nil
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for job := range d.jobs {
		// detached from the triggering request on purpose
		ctx := context.Background()

		res := BulkResult{Queued: len(job.packages)}
		for _, pkg := range job.packages {
			// the sent-flag gate: bulk dispatch never re-sends
			if pkg.EmailSent(job.kind) {
				continue
			}
			if d.notifier.Send(ctx, pkg, job.kind) {
				res.Sent++
			} else {
				res.Failed++
			}
		}

		log.Printf("bulk send complete: kind=%s queued=%d sent=%d failed=%d",
			job.kind, res.Queued, res.Sent, res.Failed)
		job.done <- res
		close(job.done)
	}
}

// Shutdown stops accepting jobs and waits for the worker to drain.
func (d *Dispatcher) Shutdown() {
	d.closeOnce.Do(func() { close(d.jobs) })
	d.wg.Wait()
}

package utils

import (
	"context"
	"sync"
)

// KeyedQueue runs jobs one at a time per key, in submission order.
// Jobs with different keys run concurrently. A worker goroutine exists
// only while its key has queued work.
type KeyedQueue struct {
	mu    sync.Mutex
	lanes map[string]*queueLane
}

type queueLane struct {
	jobs []*queuedJob
}

type queuedJob struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// NewKeyedQueue creates an empty queue
func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{lanes: make(map[string]*queueLane)}
}

// Do enqueues fn under key and waits for it to finish.
// If ctx ends while the job is still waiting its turn, the job is skipped.
// If ctx ends while the job is running, Do returns ctx.Err() and the job
// observes the cancellation through its own ctx.
func (q *KeyedQueue) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	job := &queuedJob{ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.Lock()
	lane, ok := q.lanes[key]
	if !ok {
		lane = &queueLane{}
		q.lanes[key] = lane
	}
	lane.jobs = append(lane.jobs, job)
	if !ok {
		go q.drain(key, lane)
	}
	q.mu.Unlock()

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many jobs are queued or running for key.
func (q *KeyedQueue) Pending(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if lane, ok := q.lanes[key]; ok {
		return len(lane.jobs)
	}
	return 0
}

func (q *KeyedQueue) drain(key string, lane *queueLane) {
	for {
		q.mu.Lock()
		if len(lane.jobs) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		job := lane.jobs[0]
		q.mu.Unlock()

		if err := job.ctx.Err(); err != nil {
			job.done <- err
		} else {
			job.done <- job.fn(job.ctx)
		}

		q.mu.Lock()
		lane.jobs = lane.jobs[1:]
		q.mu.Unlock()
	}
}

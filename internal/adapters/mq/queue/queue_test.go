package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dzhang123/DynaCard/internal/domain/model"
)

func job(id string) model.Job {
	return model.Job{ID: id, Header: model.Header{WellID: "W1"}, SubmittedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if err := q.Enqueue(ctx, job("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "job1" {
		t.Errorf("expected job1, got %v", got.ID)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"job1", "job2"} {
		if err := q.Enqueue(ctx, job(id)); err != nil {
			t.Fatalf("expected enqueue of %s to succeed, got %v", id, err)
		}
	}

	if err := q.Enqueue(ctx, job("job3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_InvalidCapacityIgnored(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(0), WithCapacity(-5))
	if c := q.Cap(); c != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, c)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, job("job1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	numProducers := 10
	numJobs := 100

	var producers sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		producers.Add(1)
		go func(id int) {
			defer producers.Done()
			for j := 0; j < numJobs; j++ {
				for q.Enqueue(ctx, job(fmt.Sprintf("job%d_%d", id, j))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
	)
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for j := range q.Dequeue(ctx) {
				mu.Lock()
				seen[j.ID]++
				mu.Unlock()
			}
		}()
	}

	producers.Wait()
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	consumers.Wait()

	if len(seen) != numProducers*numJobs {
		t.Errorf("expected %d distinct jobs, got %d", numProducers*numJobs, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("job %s delivered %d times", id, n)
		}
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for _, id := range []string{"job1", "job2"} {
		if err := q.Enqueue(ctx, job(id)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if err := q.Enqueue(ctx, job("job3")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Queued jobs drain before the channel closes.
	var ids []string
	timeout := time.After(time.Second)
	jobs := q.Dequeue(ctx)
	for done := false; !done; {
		select {
		case j, ok := <-jobs:
			if !ok {
				done = true
				break
			}
			ids = append(ids, j.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
	if len(ids) != 2 || ids[0] != "job1" || ids[1] != "job2" {
		t.Errorf("expected [job1 job2], got %v", ids)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestInMemoryQueue_AbandonedConsumerReturnsJob(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	if err := q.Enqueue(context.Background(), job("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	// Nobody reads from the channel, so the forwarder holds job1.
	ctx, cancel := context.WithCancel(context.Background())
	jobs := q.Dequeue(ctx)
	waitLen(t, q, 0)

	cancel()
	waitLen(t, q, 1)

	select {
	case _, ok := <-jobs:
		if ok {
			t.Error("expected no job on the abandoned channel")
		}
	case <-time.After(time.Second):
		t.Fatal("expected the abandoned channel to be closed")
	}

	next, stop := context.WithCancel(context.Background())
	defer stop()
	if got := <-q.Dequeue(next); got.ID != "job1" {
		t.Errorf("expected job1 to be delivered again, got %q", got.ID)
	}
}

func TestInMemoryQueue_AbandonedConsumerAfterClose(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	if err := q.Enqueue(context.Background(), job("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	jobs := q.Dequeue(ctx)
	waitLen(t, q, 0)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	cancel()

	select {
	case <-jobs:
	case <-time.After(time.Second):
		t.Fatal("expected the forwarder to exit after cancel")
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected a closed queue to stay empty, got %d", l)
	}
}

func waitLen(t *testing.T, q *InMemoryQueue, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for q.Len() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected length %d, got %d", want, q.Len())
		}
		time.Sleep(time.Millisecond)
	}
}

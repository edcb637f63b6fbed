package hub

import (
	"errors"
	"sync"
	"testing"

	"netwatch-sim/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingViewer struct {
	mu   sync.Mutex
	got  [][]byte
	fail error
}

func (r *recordingViewer) Send(p []byte) error {
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	r.got = append(r.got, p)
	r.mu.Unlock()
	return nil
}

func (r *recordingViewer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

type panickingViewer struct{}

func (panickingViewer) Send([]byte) error { panic("boom") }

func TestBroadcastSkipsClosedViewer(t *testing.T) {
	m := observability.New(prometheus.NewRegistry())
	h := New(m, nil)

	a := NewQueueViewer(4)
	b := NewQueueViewer(4)
	closed := NewQueueViewer(4)
	closed.Close()
	h.Register(a)
	h.Register(b)
	h.Register(closed)

	if n := h.Broadcast([]byte("tick")); n != 2 {
		t.Fatalf("delivered=%d, want 2", n)
	}
	for _, q := range []*QueueViewer{a, b} {
		select {
		case p := <-q.C():
			if string(p) != "tick" {
				t.Fatalf("unexpected payload %q", p)
			}
		default:
			t.Fatalf("viewer did not receive payload")
		}
	}
	if h.Len() != 3 {
		t.Fatalf("failed viewers must stay registered, len=%d", h.Len())
	}
	if v := testutil.ToFloat64(m.BroadcastFailures); v != 1 {
		t.Fatalf("broadcast failures = %f, want 1", v)
	}
}

func TestBroadcastSurvivesPanickingViewer(t *testing.T) {
	h := New(nil, nil)
	ok := &recordingViewer{}
	h.Register(panickingViewer{})
	h.Register(ok)
	if n := h.Broadcast([]byte("x")); n != 1 {
		t.Fatalf("delivered=%d, want 1", n)
	}
	if ok.count() != 1 {
		t.Fatalf("healthy viewer missed payload")
	}
}

func TestBroadcastWithNoViewers(t *testing.T) {
	h := New(nil, nil)
	if n := h.Broadcast([]byte("x")); n != 0 {
		t.Fatalf("delivered=%d, want 0", n)
	}
}

func TestUnregister(t *testing.T) {
	m := observability.New(prometheus.NewRegistry())
	h := New(m, nil)
	v := &recordingViewer{}
	id := h.Register(v)
	h.Register(&recordingViewer{fail: errors.New("gone")})
	if v := testutil.ToFloat64(m.Viewers); v != 2 {
		t.Fatalf("viewers gauge = %f, want 2", v)
	}
	h.Unregister(id)
	h.Unregister(id)
	h.Unregister(Handle(999))
	if h.Len() != 1 {
		t.Fatalf("len=%d, want 1", h.Len())
	}
	h.Broadcast([]byte("x"))
	if v.count() != 0 {
		t.Fatalf("unregistered viewer received payload")
	}
}

func TestConcurrentRegisterAndBroadcast(t *testing.T) {
	h := New(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := h.Register(&recordingViewer{})
				h.Unregister(id)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Broadcast([]byte("x"))
			}
		}()
	}
	wg.Wait()
	if h.Len() != 0 {
		t.Fatalf("len=%d, want 0", h.Len())
	}
}

func TestQueueViewerOrderAndBackpressure(t *testing.T) {
	q := NewQueueViewer(2)
	if err := q.Send([]byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := q.Send([]byte("2")); err != nil {
		t.Fatal(err)
	}
	if err := q.Send([]byte("3")); !errors.Is(err, ErrViewerBusy) {
		t.Fatalf("expected ErrViewerBusy, got %v", err)
	}
	if p := <-q.C(); string(p) != "1" {
		t.Fatalf("fifo broken, got %q", p)
	}
	if p := <-q.C(); string(p) != "2" {
		t.Fatalf("fifo broken, got %q", p)
	}
	q.Close()
	q.Close()
	if err := q.Send([]byte("4")); !errors.Is(err, ErrViewerClosed) {
		t.Fatalf("expected ErrViewerClosed, got %v", err)
	}
}

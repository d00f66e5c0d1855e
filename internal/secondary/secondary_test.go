package secondary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motiond/internal/frame"
)

func TestMailboxPostReplacesPending(t *testing.T) {
	m := NewMailbox()
	m.Post(Verdict{Confirmed: false, Score: 0.1})
	m.Post(Verdict{Confirmed: true, Score: 0.9})

	v, ok := m.TryDrain()
	if !ok {
		t.Fatal("expected a pending verdict")
	}
	if !v.Confirmed || v.Score != 0.9 {
		t.Fatalf("got %+v, want the latest posted verdict", v)
	}

	if _, ok := m.TryDrain(); ok {
		t.Fatal("TryDrain should be empty after the single pending verdict was drained")
	}
}

func TestMailboxTryDrainEmpty(t *testing.T) {
	m := NewMailbox()
	if _, ok := m.TryDrain(); ok {
		t.Fatal("fresh mailbox should have nothing pending")
	}
}

func TestClientClassifyPostsJPEGAndDecodesVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("want POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("missing image field: %v", err)
		}
		file.Close()
		json.NewEncoder(w).Encode(Verdict{Confirmed: true, Score: 0.75})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	v, err := c.Classify(context.Background(), frame.New(8, 8))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !v.Confirmed || v.Score != 0.75 {
		t.Fatalf("got %+v", v)
	}
}

func TestClientClassifyNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Classify(context.Background(), frame.New(8, 8)); err == nil {
		t.Fatal("expected an error on a non-200 response")
	}
}

func TestRunnerOfferThrottlesByInterval(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(Verdict{Confirmed: true})
	}))
	defer srv.Close()

	r := &Runner{Client: NewClient(srv.URL), Mailbox: NewMailbox(), Interval: 3}
	ctx := context.Background()
	f := frame.New(8, 8)

	for i := 0; i < 6; i++ {
		r.Offer(ctx, f)
	}

	// Two submissions should have fired (frames 3 and 6); give their
	// goroutines time to land.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && calls < 2 {
		time.Sleep(10 * time.Millisecond)
	}
	if calls != 2 {
		t.Fatalf("want 2 classify calls out of 6 offers at interval 3, got %d", calls)
	}
}

func TestRunnerOfferZeroIntervalNeverSubmits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	r := &Runner{Client: NewClient(srv.URL), Mailbox: NewMailbox(), Interval: 0}
	for i := 0; i < 5; i++ {
		r.Offer(context.Background(), frame.New(8, 8))
	}
	time.Sleep(50 * time.Millisecond)
	if calls != 0 {
		t.Fatalf("want 0 calls with Interval=0, got %d", calls)
	}
}

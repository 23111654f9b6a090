package retry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/deusflow/newscorpus/internal/fetch"
	"github.com/deusflow/newscorpus/internal/logger"
)

func init() {
	logger.InitWriter(io.Discard, false)
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, nil, func() error {
		calls++
		if calls < 2 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3}, nil, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestDoSkipsPermanentErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5}, Transient, func() error {
		calls++
		return &fetch.StatusError{URL: "u", Code: http.StatusNotFound}
	})
	if err == nil || calls != 1 {
		t.Fatalf("err = %v, calls = %d, want one attempt", err, calls)
	}
	if strings.Contains(err.Error(), "attempts") {
		t.Errorf("single attempt reported as retried: %v", err)
	}
}

func TestDoReportsAttemptsMade(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5}, Transient, func() error {
		calls++
		if calls < 2 {
			return &fetch.StatusError{URL: "u", Code: http.StatusServiceUnavailable}
		}
		return &fetch.StatusError{URL: "u", Code: http.StatusNotFound}
	})
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if err == nil || !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("err = %v, want it to report 2 attempts", err)
	}
}

func TestTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("connection reset"), true},
		{&fetch.StatusError{Code: 503}, true},
		{&fetch.StatusError{Code: 429}, true},
		{&fetch.StatusError{Code: 404}, false},
		{context.Canceled, false},
		{fetch.ErrBodyTooLarge, false},
	}
	for _, tc := range cases {
		if got := Transient(tc.err); got != tc.want {
			t.Errorf("Transient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Policy{MaxAttempts: 3})
	page, err := fetch.Get(context.Background(), c, srv.URL, "test")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(page.Body) != "ok" || hits.Load() != 3 {
		t.Errorf("body = %q after %d hits", page.Body, hits.Load())
	}
}

func TestClientReturnsLastStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Policy{MaxAttempts: 2})
	_, err := fetch.Get(context.Background(), c, srv.URL, "test")
	var se *fetch.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Errorf("err = %v, want 502 StatusError", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

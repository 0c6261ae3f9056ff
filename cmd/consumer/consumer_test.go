package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/carpool-matching/internal/events"
	"github.com/example/carpool-matching/internal/models"
)

// fakeUpdater implements RedisUpdater for tests
type fakeUpdater struct {
	failPush  int // number of times to fail LPush before succeeding
	failTrim  int // number of times to fail LTrim before succeeding
	pushCalls int
	trimCalls int
	keys      []string
	trimStop  int64
}

func (f *fakeUpdater) LPush(ctx context.Context, key string, value []byte) error {
	f.pushCalls++
	if f.pushCalls <= f.failPush {
		return errors.New("lpush fail")
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeUpdater) LTrim(ctx context.Context, key string, start, stop int64) error {
	f.trimCalls++
	if f.trimCalls <= f.failTrim {
		return errors.New("ltrim fail")
	}
	f.trimStop = stop
	return nil
}

func driverPost() models.MatchCandidate {
	return models.MatchCandidate{ID: "driver-1", Role: models.RoleDriver, Price: models.Price(4), Origin: "Downtown Metro", Destination: "Tech Park Campus"}
}

func TestMirrorPostWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{failPush: 1, failTrim: 1}
	ctx := context.Background()
	start := time.Now()
	if err := mirrorPostWithRetry(ctx, f, driverPost(), 100, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.pushCalls != 2 || f.trimCalls != 2 {
		t.Fatalf("expected retries, got push=%d trim=%d", f.pushCalls, f.trimCalls)
	}
	if len(f.keys) != 1 || f.keys[0] != "pool:posts:driver" {
		t.Fatalf("pushed to %v", f.keys)
	}
	if f.trimStop != 99 {
		t.Fatalf("trim stop %d", f.trimStop)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestMirrorPostWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{failPush: 5}
	if err := mirrorPostWithRetry(context.Background(), f, driverPost(), 100, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.trimCalls != 0 {
		t.Fatal("trimmed without a push")
	}
}

func TestMirrorPostWithRetry_StopsOnCancel(t *testing.T) {
	f := &fakeUpdater{failPush: 5}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mirrorPostWithRetry(ctx, f, driverPost(), 100, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHandleMessageOnlyMirrorsPosts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fakeUpdater{}
	c := driverPost()
	b, _ := json.Marshal(events.Event{Type: events.MatchesReady, SessionID: "s1"})
	handleMessage(context.Background(), logger, f, b, 10, 1, time.Millisecond)
	if f.pushCalls != 0 {
		t.Fatal("non-post event mirrored")
	}
	b, _ = json.Marshal(events.Event{Type: events.PostPublished, SessionID: "s1", Candidate: &c})
	handleMessage(context.Background(), logger, f, b, 10, 1, time.Millisecond)
	if f.pushCalls != 1 {
		t.Fatalf("push calls %d", f.pushCalls)
	}
	b, _ = json.Marshal(events.Event{Type: events.PostPublished, SessionID: "s1"})
	handleMessage(context.Background(), logger, f, b, 10, 1, time.Millisecond)
	handleMessage(context.Background(), logger, f, []byte("garbage"), 10, 1, time.Millisecond)
	if f.pushCalls != 1 {
		t.Fatal("invalid messages reached redis")
	}
}

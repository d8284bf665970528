package lirc

import (
	"bufio"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestReadReply_ListWithData(t *testing.T) {
	raw := "BEGIN\nLIST SonyTV\nSUCCESS\nDATA\n2\n0000000000000a90 KEY_POWER\n0000000000000490 KEY_VOLUMEUP\nEND\n"

	rep, err := readReply(bufio.NewReader(strings.NewReader(raw)), "LIST SonyTV")
	if err != nil {
		t.Fatalf("readReply: %v", err)
	}
	if !rep.success {
		t.Error("expected success")
	}
	want := []string{"0000000000000a90 KEY_POWER", "0000000000000490 KEY_VOLUMEUP"}
	if !reflect.DeepEqual(rep.data, want) {
		t.Errorf("data: got %v, want %v", rep.data, want)
	}
	if got := codeName(rep.data[0]); got != "KEY_POWER" {
		t.Errorf("codeName: got %q, want KEY_POWER", got)
	}
}

func TestReadReply_SkipsSighup(t *testing.T) {
	raw := "BEGIN\nSIGHUP\nEND\nBEGIN\nSEND_ONCE tv power\nSUCCESS\nEND\n"

	rep, err := readReply(bufio.NewReader(strings.NewReader(raw)), "SEND_ONCE tv power")
	if err != nil {
		t.Fatalf("readReply: %v", err)
	}
	if !rep.success || rep.command != "SEND_ONCE tv power" {
		t.Errorf("reply: got %+v", rep)
	}
}

func TestReadReply_Error(t *testing.T) {
	raw := "BEGIN\nSEND_ONCE tv nope\nERROR\nDATA\n1\nunknown command: \"nope\"\nEND\n"

	rep, err := readReply(bufio.NewReader(strings.NewReader(raw)), "SEND_ONCE tv nope")
	if err != nil {
		t.Fatalf("readReply: %v", err)
	}
	if rep.success {
		t.Error("expected failure")
	}
	if len(rep.data) != 1 {
		t.Errorf("data: got %v", rep.data)
	}
}

func TestReadReply_Malformed(t *testing.T) {
	cases := map[string]string{
		"truncated":    "BEGIN\nLIST\nSUCCESS\n",
		"bad count":    "BEGIN\nLIST\nSUCCESS\nDATA\nx\nEND\n",
		"unknown line": "BEGIN\nLIST\nWHAT\nEND\n",
		"wrong reply":  "BEGIN\nVERSION\nSUCCESS\nEND\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := readReply(bufio.NewReader(strings.NewReader(raw)), "LIST"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
	calls := 0
	err := withRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
	calls := 0
	err := withRetry(context.Background(), cfg, func() error {
		calls++
		return errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestQueue_RunsInOrder(t *testing.T) {
	q := newQueue(8)
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		if err := q.enqueue(func(context.Context) error { got = append(got, i); return nil }); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	q.close()
	q.run(context.Background())

	if want := []int{0, 1, 2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("order: got %v, want %v", got, want)
	}
	if err := q.enqueue(func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("enqueue after close: got %v, want ErrClosed", err)
	}
}

func TestQueue_FullDoesNotBlock(t *testing.T) {
	q := newQueue(2)
	noop := func(context.Context) error { return nil }
	for i := 0; i < 2; i++ {
		if err := q.enqueue(noop); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- q.enqueue(noop) }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueFull) {
			t.Errorf("got %v, want ErrQueueFull", err)
		}
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	q.close()
}

package run

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRun_ExitCodes(t *testing.T) {
	r := New(zap.NewNop())
	cases := map[string]struct {
		err  error
		want int
	}{
		"clean":         {nil, 0},
		"server closed": {http.ErrServerClosed, 0},
		"failure":       {errors.New("boom"), 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			code := r.run(context.Background(), func(context.Context) error { return tc.err })
			if code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, code)
			}
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	r := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code := r.run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return errors.New("late")
	})
	if code != 0 {
		t.Fatalf("expected 0 on signal, got %d", code)
	}
}

func TestGraceful_RunsAllHooks(t *testing.T) {
	r := New(zap.NewNop())
	r.ShutdownTimeout = time.Second
	var calls []string
	r.Graceful(
		func(context.Context) error { calls = append(calls, "a"); return errors.New("ignored") },
		func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected deadline")
			}
			calls = append(calls, "b")
			return nil
		},
	)
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("unexpected hook order: %v", calls)
	}
}

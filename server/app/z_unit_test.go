// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type failing struct{ stopped atomic.Bool }

func (f *failing) Run() error                       { return errors.New("boom") }
func (f *failing) Shutdown(ctx context.Context) error { f.stopped.Store(true); return nil }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestComponentErrorStopsAll(t *testing.T) {
	var closed atomic.Bool
	c := NewCloser("store", func() error { closed.Store(true); return nil })
	f := &failing{}
	err := NewWith(quiet(), c, f).RunContext(context.Background())
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if !closed.Load() || !f.stopped.Load() {
		t.Fatalf("components not shut down")
	}
}

func TestContextCancelShutsDown(t *testing.T) {
	calls := 0
	c := NewCloser("runtime", func() error { calls++; return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := NewWith(quiet(), c).RunContext(ctx); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// second shutdown is a no-op
	_ = c.Shutdown(context.Background())
	if calls != 1 {
		t.Fatalf("close fn called %d times", calls)
	}
	if c.Name() != "runtime" {
		t.Fatalf("name = %s", c.Name())
	}
}

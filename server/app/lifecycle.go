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

import "context"

// Component Run 阻塞直到結束；Shutdown 需在 ctx 期限內釋放資源。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Closer 把只需關閉的資源（store、runtime、async log）包成 Component。
// Run 阻塞到 Shutdown 被呼叫。
type Closer struct {
	name string
	fn   func() error
	stop chan struct{}
}

func NewCloser(name string, fn func() error) *Closer {
	return &Closer{name: name, fn: fn, stop: make(chan struct{})}
}

func (c *Closer) Name() string { return c.name }

func (c *Closer) Run() error {
	<-c.stop
	return nil
}

func (c *Closer) Shutdown(ctx context.Context) error {
	select {
	case <-c.stop:
		return nil
	default:
		close(c.stop)
	}
	done := make(chan error, 1)
	go func() { done <- c.fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

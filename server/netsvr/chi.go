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

package netsvr

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const DefaultAddr = ":5808"

// ChiServer NetSvr 的 chi 實作。
type ChiServer struct {
	router chi.Router
	server *http.Server
	addr   string
}

// NewChiServer writeTimeout 需大於單次檢驗的上限，<= 0 時用 60s。
func NewChiServer(addr string, writeTimeout time.Duration) *ChiServer {
	if addr == "" {
		addr = DefaultAddr
	}
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	r := chi.NewRouter()
	return &ChiServer{
		router: r,
		server: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       120 * time.Second,
		},
		addr: addr,
	}
}

func (c *ChiServer) Ready() bool {
	return c != nil && c.router != nil && c.server != nil &&
		strings.Contains(c.addr, ":") && c.server.Handler == c.router
}

// Run 阻塞到 Shutdown；正常關閉不視為錯誤。
func (c *ChiServer) Run() error {
	err := c.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (c *ChiServer) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

// Handler 給 httptest 使用。
func (c *ChiServer) Handler() http.Handler { return c.router }

func (c *ChiServer) Address() string { return c.addr }

func (c *ChiServer) Use(mw func(http.Handler) http.Handler) { c.router.Use(mw) }

func (c *ChiServer) Get(path string, h http.HandlerFunc)  { c.router.Get(path, h) }
func (c *ChiServer) Post(path string, h http.HandlerFunc) { c.router.Post(path, h) }
func (c *ChiServer) Handle(path string, h http.Handler)   { c.router.Handle(path, h) }

func (c *ChiServer) Group(path string, fn func(NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		fn(&ChiServer{router: r})
	})
}

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

// Package server 把 Petlab、結果 store、metrics 組裝成 HTTP 服務。
package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/server/api"
	v1 "github.com/zintix-labs/petlab/server/api/v1"
	"github.com/zintix-labs/petlab/server/app"
	"github.com/zintix-labs/petlab/server/metrics"
	"github.com/zintix-labs/petlab/server/netsvr"
	"github.com/zintix-labs/petlab/server/svrcfg"
	"github.com/zintix-labs/petlab/store"
)

// Service 已組裝好的依賴；Close 依序釋放 runtime 與 store。
type Service struct {
	Deps *v1.Deps
}

// Build 驗證設定並建立 runtime、store、metrics。
func Build(sCfg *svrcfg.SvrCfg) (*Service, error) {
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	rt, err := sCfg.Lab.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build check runtime")
	}
	st, err := store.Open(sCfg.DBPath)
	if err != nil {
		rt.Close()
		return nil, err
	}
	m := metrics.New()
	m.WatchPool(rt.Pool())
	return &Service{Deps: &v1.Deps{
		Log:          sCfg.Log,
		Runtime:      rt,
		Store:        st,
		Metrics:      m,
		CheckTimeout: sCfg.CheckTimeout,
	}}, nil
}

func (s *Service) Close() error {
	s.Deps.Runtime.Close()
	return s.Deps.Store.Close()
}

// Run 預設 chi server 的啟動入口，阻塞到收到終止信號。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	writeTimeout := sCfg.CheckTimeout
	if writeTimeout > 0 {
		writeTimeout += writeTimeout / 2
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr, writeTimeout))
}

// RunWithSvr 允許呼叫端注入自訂 NetSvr（例如額外的 listener 設定）。
// 路由、middleware 與關閉順序與 Run 相同。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiServer); ok && !s.Ready() {
		return errs.NewFatal("chi server is not ready")
	}
	service, err := Build(sCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	api.RegisterRoutes(svr, service.Deps)

	a := app.NewWith(sCfg.Log, svr, app.NewCloser("petlab", service.Close))
	sCfg.Log.Info("[petlab] listening", slog.String("addr", addrOf(svr)), slog.String("db", sCfg.DBPath))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}

func addrOf(svr netsvr.NetSvr) string {
	if s, ok := svr.(interface{ Address() string }); ok {
		return s.Address()
	}
	return ""
}

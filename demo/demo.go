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

// Package demo 把內建的示範模型與生成器組裝成可直接使用的 Petlab 與服務設定。
package demo

import (
	"github.com/zintix-labs/petlab"
	"github.com/zintix-labs/petlab/catalog"
	"github.com/zintix-labs/petlab/demo/demo_configs"
	"github.com/zintix-labs/petlab/demo/demo_logic"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/server/logger"
	"github.com/zintix-labs/petlab/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewServerConfig 示範服務：記憶體 SQLite、dev log。
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := NewPetlab()
	if err != nil {
		return nil, errs.NewFatal("new petlab failed: " + err.Error())
	}
	log := logger.NewDefaultAsyncLogger(logger.ModeDev)
	lab.SetLogger(log)
	scfg := &svrcfg.SvrCfg{
		Log:      log,
		PoolSize: 2,
		Lab:      lab,
		DBPath:   ":memory:",
	}
	return scfg, nil
}

func NewPetlab() (*petlab.Petlab, error) {
	return petlab.NewAuto(
		core.Default(),
		petlab.Configs(demo_configs.FS),
		petlab.Logics(demo_logic.Logics),
	)
}

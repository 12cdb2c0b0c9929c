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

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/petlab/demo"
	"github.com/zintix-labs/petlab/server"
	"github.com/zintix-labs/petlab/server/logger"
	"github.com/zintix-labs/petlab/server/svrcfg"
)

type serveOpts struct {
	addr         string
	db           string
	pool         int
	logMode      string
	logBuf       int
	checkTimeout time.Duration
}

func newServeCmd() *cobra.Command {
	o := new(serveOpts)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the check API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := logger.ParseMode(o.logMode)
			if err != nil {
				return err
			}
			log, ah := logger.NewAsync(o.logBuf, mode)
			defer ah.Close()

			lab, err := demo.NewPetlab()
			if err != nil {
				return err
			}
			lab.SetLogger(log)
			return server.Run(&svrcfg.SvrCfg{
				Log:          log,
				PoolSize:     o.pool,
				Lab:          lab,
				Addr:         o.addr,
				DBPath:       o.db,
				CheckTimeout: o.checkTimeout,
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.addr, "addr", svrcfg.DefaultAddr, "listen address")
	f.StringVar(&o.db, "db", svrcfg.DefaultDBPath, "sqlite path for saved results")
	f.IntVar(&o.pool, "pool", svrcfg.DefaultPoolSize, "concurrent checks (1..10)")
	f.StringVar(&o.logMode, "log-mode", "dev", "log mode: dev|prod|silence")
	f.IntVar(&o.logBuf, "log-buf", 4096, "async log queue size")
	f.DurationVar(&o.checkTimeout, "check-timeout", 0, "per request limit, 0 for model setting only")
	return cmd
}

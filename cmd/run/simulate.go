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
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/petlab"
	"github.com/zintix-labs/petlab/sdk/perf"
	"github.com/zintix-labs/petlab/stats"
)

type simOpts struct {
	ref modelRef
	so  petlab.SimOptions
}

func newSimulateCmd(opt *globalOpts) *cobra.Command {
	sm := new(simOpts)
	cmd := &cobra.Command{
		Use:     "simulate",
		Aliases: []string{"sim"},
		Short:   "Monte-Carlo estimate of the reachability probability",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lab, err := newLab(opt)
			if err != nil {
				return err
			}
			sim, err := sm.ref.simulator(lab)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var rep *stats.SimReport
			err = profile(opt, func() error {
				var err error
				rep, err = sim.Run(ctx, sm.so)
				return err
			})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opt.output, rep)
		},
	}
	sm.ref.bind(cmd)
	f := cmd.Flags()
	f.IntVar(&sm.so.Runs, "runs", 10000, "number of sampled paths")
	f.IntVar(&sm.so.MaxSteps, "max-steps", 10000, "steps before a path is truncated")
	f.IntVar(&sm.so.Workers, "workers", 1, "parallel walkers")
	f.Float64Var(&sm.so.Confidence, "confidence", petlab.DefaultConfidence, "confidence level of the interval")
	f.BoolVar(&sm.so.ShowPB, "progress", true, "show progress bar on stderr")
	return cmd
}

func profile(opt *globalOpts, exe func() error) error {
	return perf.Profile(opt.pprof, opt.pprofDir, exe)
}

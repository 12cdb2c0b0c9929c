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
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/petlab/spec"
	"github.com/zintix-labs/petlab/stats"
	"github.com/zintix-labs/petlab/store"
)

type checkOpts struct {
	ref       modelRef
	cs        spec.CheckSetting
	stepBound int
	progress  bool
	saveDB    string
}

func newCheckCmd(opt *globalOpts) *cobra.Command {
	co := new(checkOpts)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compute reachability bounds for a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("step-bound") {
				co.cs.StepBound = &co.stepBound
			}
			return runCheck(cmd, opt, co)
		},
	}
	co.ref.bind(cmd)
	f := cmd.Flags()
	f.StringVar(&co.cs.Mode, "mode", "", "reach|core (core learns the explored sub-model)")
	f.Float64Var(&co.cs.Precision, "precision", 0, "stop when upper-lower < precision")
	f.StringVar(&co.cs.Direction, "direction", "", "max|min|unique")
	f.StringVar(&co.cs.Heuristic, "heuristic", "", "PROB|WEIGHTED|DIFFERENCE|GRAPH_WEIGHTED|GRAPH_DIFFERENCE")
	f.IntVar(&co.stepBound, "step-bound", 0, "bounded reachability within k steps")
	f.StringVar(&co.cs.Components, "components", "", "component analyser: auto|mec|bscc")
	f.Int64Var(&co.cs.Seed, "seed", 0, "sampler seed, 0 for random")
	f.StringVar(&co.cs.RNG, "rng", "", "PRNG name")
	f.StringVar(&co.cs.Timeout, "timeout", "", "wall clock limit, e.g. 30s")
	f.BoolVar(&co.progress, "progress", true, "show progress bar on stderr")
	f.StringVar(&co.saveDB, "save", "", "store the report into this sqlite file")
	return cmd
}

func runCheck(cmd *cobra.Command, opt *globalOpts, co *checkOpts) error {
	lab, err := newLab(opt)
	if err != nil {
		return err
	}
	ck, err := co.ref.checker(lab, &co.cs)
	if err != nil {
		return err
	}
	ck.ShowProgress(co.progress)

	// Ctrl-C 仍輸出當下的區間
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var rep *stats.CheckReport
	err = profile(opt, func() error {
		var err error
		rep, err = ck.Check(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if err := render(cmd.OutOrStdout(), opt.output, rep); err != nil {
		return err
	}
	if co.saveDB != "" {
		if err := save(co.saveDB, rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved %s to %s\n", rep.RunID, co.saveDB)
	}
	return nil
}

func save(path string, rep *stats.CheckReport) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Save(context.Background(), rep)
}

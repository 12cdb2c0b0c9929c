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

// Command run 在本機對內建或外部模型做可達性檢驗與模擬。
//
//	go run ./cmd/run list
//	go run ./cmd/run check -m gambler --precision 1e-4
//	go run ./cmd/run check -f model.yaml -o json
//	go run ./cmd/run simulate -m coin --runs 100000 --workers 4
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opt := new(globalOpts)
	root := &cobra.Command{
		Use:           "run",
		Short:         "Bounded reachability checks for Markov models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&opt.output, "output", "o", "table", "output format: table|json|yaml")
	pf.StringVar(&opt.logMode, "log-mode", "silence", "log mode: dev|prod|silence")
	pf.StringVarP(&opt.pprof, "pprof", "p", "", "profile: cpu|heap|allocs")
	pf.StringVar(&opt.pprofDir, "pprof-dir", "build/profiling", "profile output directory")

	root.AddCommand(newListCmd(opt), newCheckCmd(opt), newSimulateCmd(opt))
	return root
}

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
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/petlab/stats"
)

func newListCmd(opt *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lab, err := newLab(opt)
			if err != nil {
				return err
			}
			sums, err := lab.Summary()
			if err != nil {
				return err
			}
			if opt.output != "table" {
				r, err := stats.RenderByName(opt.output)
				if err != nil {
					return err
				}
				return r.Write(cmd.OutOrStdout(), sums)
			}
			rows := make([][]string, 0, len(sums))
			for _, s := range sums {
				rows = append(rows, []string{fmt.Sprint(s.MID), s.Name, string(s.Logic), s.Mode, s.Direction})
			}
			_, err = io.WriteString(cmd.OutOrStdout(), stats.FmtColumns([]string{"ID", "NAME", "LOGIC", "MODE", "DIRECTION"}, rows))
			return err
		},
	}
}

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

	"github.com/spf13/cobra"
	"github.com/zintix-labs/petlab/store"
)

func newStoreCmd() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Export or import saved reports",
	}
	cmd.PersistentFlags().StringVar(&db, "db", "petlab.db", "sqlite path")

	export := &cobra.Command{
		Use:   "export",
		Short: "Write all reports to stdout as zstd frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.Open(db)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Export(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d reports\n", n)
			return nil
		},
	}
	imp := &cobra.Command{
		Use:   "import",
		Short: "Read reports from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.Open(db)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Import(cmd.Context(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d reports\n", n)
			return nil
		},
	}
	cmd.AddCommand(export, imp)
	return cmd
}

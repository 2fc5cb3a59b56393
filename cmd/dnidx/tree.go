package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the suffix entry's ID and its subtree (reported as the all-IDs sentinel, not listed ID by ID)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ix, db, err := openIndex(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			suffix := dn.Normalize(flagSuffix)
			rootID, err := ix.Lookup(ctx, nil, suffix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", suffix, rootID)

			descendants, err := ix.Descendants(ctx, nil, suffix, dnindex.Subtree)
			if err != nil {
				return err
			}
			if descendants.IsAll() {
				fmt.Fprintln(cmd.OutOrStdout(), "  all (suffix subtree short-circuit)")
				return nil
			}
			for _, id := range descendants.Slice() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d\n", id)
			}
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
)

func newChildrenCmd() *cobra.Command {
	var scopeFlag string

	cmd := &cobra.Command{
		Use:   "children <dn>",
		Short: "List the IDs of a DN's descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scope dnindex.Scope
			switch scopeFlag {
			case "one":
				scope = dnindex.One
			case "subtree":
				scope = dnindex.Subtree
			default:
				return fmt.Errorf("invalid --scope %q (want one or subtree)", scopeFlag)
			}

			ctx := cmd.Context()
			ix, db, err := openIndex(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			ids, err := ix.Descendants(ctx, nil, dn.Normalize(args[0]), scope)
			if err != nil {
				return err
			}
			if ids.IsAll() {
				fmt.Fprintln(cmd.OutOrStdout(), "all (suffix subtree short-circuit)")
				return nil
			}
			for _, id := range ids.Slice() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", "one", "one or subtree")
	return cmd
}

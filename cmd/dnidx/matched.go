package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
)

func newMatchedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matched <dn>",
		Short: "Find the deepest existing ancestor of a DN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ix, db, err := openIndex(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			id, matched, err := ix.LookupMatched(ctx, nil, dn.Normalize(args[0]))
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "%d (exact)\n", id)
			case errors.Is(err, dnindex.ErrNotFound) && id != dnindex.NOID:
				fmt.Fprintf(cmd.OutOrStdout(), "%d matched=%s\n", id, matched)
			case errors.Is(err, dnindex.ErrNotFound):
				fmt.Fprintln(cmd.OutOrStdout(), "no ancestor found")
			default:
				return err
			}
			return nil
		},
	}
}

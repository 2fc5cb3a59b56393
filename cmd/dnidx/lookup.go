package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <dn>",
		Short: "Resolve a DN to its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ix, db, err := openIndex(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := ix.Lookup(ctx, nil, dn.Normalize(args[0]))
			if errors.Is(err, dnindex.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "not found")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

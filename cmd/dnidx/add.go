package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
)

func newAddCmd() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "add <dn> <id>",
		Short: "Map a DN to a numeric ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ndn := dn.Normalize(args[0])
			id, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}

			ctx := cmd.Context()
			ix, db, err := openIndex(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			txn, err := db.Begin(ctx)
			if err != nil {
				return err
			}
			pdn := parent
			if pdn != "" {
				pdn = dn.Normalize(pdn)
			}
			if err := ix.Add(ctx, txn, pdn, dnindex.Entry{NDN: ndn, ID: uint32(id)}); err != nil {
				_ = txn.Rollback(ctx)
				return err
			}
			if err := txn.Commit(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %s -> %d\n", ndn, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "normalized parent DN (empty for the suffix root entry)")
	return cmd
}

// Package main provides the dnidx command-line harness: a small tool for
// exercising a DN index directly from the shell, the way cmd/oba exposes
// the full server. Built on cobra rather than the teacher's hand-rolled
// flag dispatch (see DESIGN.md).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex/flat"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex/hier"
	"github.com/KilimcininKorOglu/dnidx/internal/kv"
	"github.com/KilimcininKorOglu/dnidx/internal/logging"
)

var (
	flagDataDir string
	flagSuffix  string
	flagVariant string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dnidx",
		Short: "Exercise a DN<->ID directory index from the command line",
	}

	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "snapshot file path (empty: in-memory only, no persistence)")
	root.PersistentFlags().StringVar(&flagSuffix, "suffix", "dc=example,dc=com", "normalized suffix DN served by the index")
	root.PersistentFlags().StringVar(&flagVariant, "variant", "hier", "index variant: flat or hier")

	root.AddCommand(
		newAddCmd(),
		newLookupCmd(),
		newMatchedCmd(),
		newChildrenCmd(),
		newTreeCmd(),
		newServeCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openIndex builds the configured variant over a snapshot-backed (or
// purely in-memory, if --data-dir is empty) KV store.
func openIndex(ctx context.Context) (dnindex.Index, kv.DB, error) {
	db, err := kv.Open(kv.Options{SnapshotPath: flagDataDir})
	if err != nil {
		return nil, nil, err
	}

	suffix := dn.NewSuffix(dn.Normalize(flagSuffix))
	log := logging.NewNop()

	switch flagVariant {
	case "flat":
		return flat.New(db, suffix, log), db, nil
	case "hier":
		ix, err := hier.New(ctx, db, suffix, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return ix, db, nil
	default:
		db.Close()
		return nil, nil, fmt.Errorf("unknown index variant %q (want flat or hier)", flagVariant)
	}
}

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(args []string) (string, error) {
	flagDataDir = ""
	flagSuffix = "dc=example,dc=com"
	flagVariant = "hier"

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return out.String(), err
}

func TestAddReportsMapping(t *testing.T) {
	// A fresh in-memory store is opened per invocation, so state does not
	// survive across commands within this test; it only exercises each
	// subcommand's argument parsing and output formatting in isolation.
	out, err := run([]string{"add", "dc=example,dc=com", "1"})
	require.NoError(t, err)
	require.Contains(t, out, "added dc=example,dc=com -> 1")
}

func TestLookupNotFound(t *testing.T) {
	out, err := run([]string{"lookup", "dc=example,dc=com"})
	require.NoError(t, err)
	require.Contains(t, out, "not found")
}

func TestMatchedEmptyStoreReturnsNoAncestor(t *testing.T) {
	out, err := run([]string{"matched", "ou=people,dc=example,dc=com"})
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "no ancestor found"))
}

func TestChildrenRejectsBadScope(t *testing.T) {
	_, err := run([]string{"children", "dc=example,dc=com", "--scope", "bogus"})
	require.Error(t, err)
}

func TestUnknownVariantRejected(t *testing.T) {
	flagVariant = "bogus"
	_, _, err := openIndex(context.Background())
	require.Error(t, err)
}

package main

import (
	"fmt"
	"os"

	"github.com/voucher-sync-ledger/internal/sync_worker/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

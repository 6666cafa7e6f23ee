// Command tldrctl is the operator CLI over pkg/tldr.Service, grounded on
// the teacher corpus's cobra command trees (mohammad-safakhou-newser's
// cmd/root.go + per-command files) and reworked from
// turkprogrammer-RAG's flag-driven -action=index|search|demo dispatch
// onto cobra subcommands: add-corpus, delete-corpus, query.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "tldrctl",
		Short: "Operate a rag-anywhere corpus from the command line",
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a rag-anywhere.yaml config file")

	root.AddCommand(addCorpusCmd(), deleteCorpusCmd(), queryCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

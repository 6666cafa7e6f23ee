package main

import (
	"fmt"

	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/pkg/tldr"
	"github.com/spf13/cobra"
)

// queryCmd - "tldrctl query <question>" runs retrieval-augmented
// generation against the configured corpus directory and prints the
// formatted answer, per spec.md §6's queryRag/formatRagResult.
func queryCmd() *cobra.Command {
	var corpusDir string
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question against the ingested corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			svc, err := tldr.Init(cfg)
			if err != nil {
				return fmt.Errorf("init service: %w", err)
			}
			defer svc.Shutdown()

			if corpusDir == "" {
				corpusDir = cfg.CorpusDir
			}

			result, err := svc.QueryRag(cmd.Context(), args[0], corpusDir)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			fmt.Println(tldr.FormatRagResult(result))
			return nil
		},
	}
	cmd.Flags().StringVar(&corpusDir, "corpus-dir", "", "corpus directory to search (defaults to the configured corpus_dir)")
	return cmd
}

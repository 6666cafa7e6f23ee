package main

import (
	"fmt"

	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/pkg/tldr"
	"github.com/spf13/cobra"
)

// deleteCorpusCmd - "tldrctl delete-corpus <file-fingerprint>" removes a
// previously ingested document and its chunks, per spec.md §6's
// deleteCorpus.
func deleteCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-corpus <file-fingerprint>",
		Short: "Remove an ingested document by its file fingerprint",
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

			if err := svc.DeleteCorpus(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete corpus: %w", err)
			}

			fmt.Println("removed")
			return nil
		},
	}
	return cmd
}

package main

import (
	"fmt"

	"github.com/GonzoDMX/rag-anywhere/internal/config"
	"github.com/GonzoDMX/rag-anywhere/pkg/tldr"
	"github.com/spf13/cobra"
)

// addCorpusCmd - "tldrctl add-corpus <path>" ingests a PDF or a directory
// of PDFs at path, per spec.md §6's addCorpus.
func addCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-corpus <path>",
		Short: "Ingest a PDF or a directory of PDFs",
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

			result, err := svc.AddCorpus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("add corpus: %w", err)
			}

			if !result.OK {
				fmt.Println(result.ErrorMessage)
				return fmt.Errorf("ingestion failed")
			}

			fmt.Println(result.SuccessMessage)
			fmt.Printf("processed %d, skipped %d, failed %d\n", result.FilesProcessed, result.FilesSkipped, result.FilesFailed)
			for _, w := range result.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			return nil
		},
	}
	return cmd
}

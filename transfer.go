package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"blocks.codes/tui/store"
)

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all habits and blocks as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, st, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			doc, err := st.Export(contextOf(cmd))
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := doc.Encode(w); err != nil {
				return err
			}
			logger.Info("exported", "habits", len(doc.Habits), "output", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Merge habits and blocks from an exported JSON file",
		Long:  "Import upserts habits by id and replaces the blocks of every imported habit. Use - to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			_, logger, st, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := st.Import(contextOf(cmd), doc)
			if err != nil {
				return err
			}
			logger.Info("imported",
				"habits", stats.Habits,
				"blocks", stats.Blocks,
				"skipped_habits", stats.SkippedHabits,
				"skipped_blocks", stats.SkippedBlocks,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d habits, %d blocks (skipped %d habits, %d blocks)\n",
				stats.Habits, stats.Blocks, stats.SkippedHabits, stats.SkippedBlocks)
			return nil
		},
	}
}

func readDocument(cmd *cobra.Command, path string) (*store.Document, error) {
	if path == "-" {
		return store.DecodeDocument(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return store.DecodeDocument(f)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importMaxErrors int

var importCmd = &cobra.Command{
	Use:   "import <file|dir|glob>...",
	Short: "Import job-skill rows into the graph",
	Long: `Import JSONL files of {"job_title": "...", "skills": ["..."]} rows.
Directories are searched for *.jsonl files; other arguments are globs and may use **.
Invalid rows are skipped and reported. Run 'careerpath index' afterwards.

Examples:
  careerpath import data/jobs.jsonl
  careerpath import 'data/**/*.jsonl'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().IntVar(&importMaxErrors, "max-errors", 20, "number of skipped rows to list")
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), needs{graph: true})
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = newBar(total, "Importing")
		}
		bar.Set(done)
	}

	result, err := a.ingestUseCase().ImportJobSkills(cmd.Context(), args, progress)
	if result != nil {
		fmt.Printf("\nImport summary:\n")
		fmt.Printf("  Files:    %d\n", result.Files)
		fmt.Printf("  Rows:     %d\n", result.Rows)
		fmt.Printf("  Imported: %d (%d batches)\n", result.Imported, result.Batches)
		fmt.Printf("  Skipped:  %d\n", result.Skipped)

		if len(result.Errors) > 0 {
			fmt.Printf("\nSkipped rows:\n")
			for i, e := range result.Errors {
				if i == importMaxErrors {
					fmt.Printf("  ... and %d more\n", len(result.Errors)-i)
					break
				}
				fmt.Printf("  - %s\n", e)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

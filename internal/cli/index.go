package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"careerpath/config"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the job-role index from the graph",
	Long: `Embed every job role in the graph and replace the job_roles collection.
Searches keep using the previous index until the new one is complete.

Examples:
  careerpath index
  careerpath index -d /path/to/project`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), needs{graph: true, vectors: true})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Embedding config: provider=%s, model=%s, dimension=%d\n",
		a.cfg.Embedding.Provider, a.encoder.ModelName(), a.encoder.Dimension())

	var bar *progressbar.ProgressBar
	var startTime time.Time

	progress := func(done, total int) {
		if bar == nil {
			startTime = time.Now()
			bar = newBar(total, "Embedding")
		}
		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	n, err := a.ingestUseCase().BuildIndex(cmd.Context(), progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Job roles indexed: %d\n", n)
	if n == 0 {
		fmt.Println("  The graph has no job roles with skills. Run 'careerpath import' first.")
	}
	fmt.Printf("\nIndex stored at: %s\n", config.ResolvePath(GetRootDir(), a.cfg.Index.Path))
	return nil
}

func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create graph constraints and prepare the index store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), needs{graph: true, vectors: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ingestUseCase().EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Schema ready (graph backend: %s)\n", a.cfg.Graph.Backend)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a small sample graph",
	Long: `Write a sample user, the Data Scientist role, two skills and two courses.
Running it again changes nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), needs{graph: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ingestUseCase().SeedSample(cmd.Context()); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		fmt.Println("Sample graph written.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(seedCmd)
}

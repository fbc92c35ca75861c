package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"careerpath/internal/usecase"
)

var (
	resumeFile  string
	resumeEmail string
	resumeJSON  bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Analyze a resume and recommend job roles",
	Long: `Extract skills from a PDF, DOCX or plain-text resume with the configured
language model, save them for the user and recommend matching job roles.

Examples:
  careerpath resume --file cv.pdf --email me@example.com`,
	Args: cobra.NoArgs,
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().StringVarP(&resumeFile, "file", "f", "", "resume file (required)")
	resumeCmd.Flags().StringVarP(&resumeEmail, "email", "e", "", "user email the skills are saved under (required)")
	resumeCmd.Flags().BoolVar(&resumeJSON, "json", false, "output as JSON")
	resumeCmd.MarkFlagRequired("file")
	resumeCmd.MarkFlagRequired("email")
}

func runResume(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(resumeFile)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	a, err := openApp(cmd.Context(), needs{graph: true, vectors: true, llm: true})
	if err != nil {
		return err
	}
	defer a.Close()

	analysis := a.advisorUseCase().AnalyzeResume(cmd.Context(), usecase.Upload{
		Data:     data,
		Filename: filepath.Base(resumeFile),
	}, resumeEmail)

	if resumeJSON {
		return printJSON(analysis)
	}

	if len(analysis.ExtractedSkills) > 0 {
		fmt.Printf("Extracted skills: %s\n", strings.Join(analysis.ExtractedSkills, ", "))
	}
	if analysis.SavedOK {
		fmt.Println("Skills saved.")
	}
	fmt.Println(analysis.Message)
	if analysis.SavedOK && len(analysis.Matches.Matches) > 0 {
		fmt.Println()
		for i, doc := range analysis.Recommendations {
			fmt.Printf("  %d. %s\n", i+1, doc)
		}
	}
	return nil
}

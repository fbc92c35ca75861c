package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"careerpath/internal/domain"
)

var (
	recommendSkills  string
	recommendCourses bool
	searchText       string
	askText          string
	outputJSON       bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank job roles for a skill list",
	Long: `Rank the closest job roles for a comma-separated skill list.

Examples:
  careerpath recommend --skills "Python, SQL, Docker"
  careerpath recommend --skills "go,kubernetes" --courses --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), needs{graph: true, vectors: true})
		if err != nil {
			return err
		}
		defer a.Close()

		skills := domain.NormalizeSkills(strings.Split(recommendSkills, ","))
		match := a.matchUseCase()
		result := match.RecommendJobsFromSkills(cmd.Context(), skills)

		if outputJSON {
			out := map[string]any{"skills": skills, "result": result}
			if recommendCourses {
				out["courses"] = match.CoursesForSkills(cmd.Context(), skills)
			}
			return printJSON(out)
		}

		printMatches("Recommended roles for: "+strings.Join(skills, ", "), result)
		if recommendCourses {
			courses := match.CoursesForSkills(cmd.Context(), skills)
			if len(courses) > 0 {
				fmt.Println("Courses:")
				for _, skill := range skills {
					for _, c := range courses[skill] {
						fmt.Printf("  %s: %s (%s)\n", skill, c.Title, c.URL)
					}
				}
			}
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search job roles with free text",
	Long: `Search job roles with any free-text query.

Examples:
  careerpath search -q "someone who enjoys statistics and python"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), needs{vectors: true})
		if err != nil {
			return err
		}
		defer a.Close()

		result := a.matchUseCase().SearchJobsBySkillQuery(cmd.Context(), searchText)
		if outputJSON {
			return printJSON(result)
		}
		printMatches("Results for: "+searchText, result)
		return nil
	},
}

var skillsCmd = &cobra.Command{
	Use:   "skills <job title>",
	Short: "List the skills a job role requires",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), needs{graph: true})
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println(a.matchUseCase().SkillsForJobTitle(cmd.Context(), strings.Join(args, " ")))
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a career question",
	Long: `Answer a career question. Questions like "What skills are needed for a
Data Scientist?" are answered from the graph; anything else searches job roles.

Examples:
  careerpath ask -q "What skills are needed for a Data Scientist?"
  careerpath ask -q "Which job suits someone who knows Python and SQL?"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), needs{graph: true, vectors: true})
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println(a.advisorUseCase().AskQuestion(cmd.Context(), askText))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd, searchCmd, skillsCmd, askCmd)

	recommendCmd.Flags().StringVarP(&recommendSkills, "skills", "s", "", "comma-separated skills (required)")
	recommendCmd.Flags().BoolVar(&recommendCourses, "courses", false, "also list courses for the skills")
	recommendCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	recommendCmd.MarkFlagRequired("skills")

	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")

	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question (required)")
	askCmd.MarkFlagRequired("query")
}

func printMatches(header string, result domain.JobMatches) {
	if result.Status != domain.MatchOK {
		fmt.Println(result.Documents()[0])
		return
	}
	fmt.Printf("%s\n\n", header)
	for i, m := range result.Matches {
		fmt.Printf("  %d. %s (distance: %.3f)\n", i+1, m.JobTitle, m.Distance)
		fmt.Printf("     %s\n", m.Document)
	}
	fmt.Println()
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"careerpath/config"
	"careerpath/internal/logger"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	debugLog bool
	jsonLog  bool
	log      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "careerpath",
	Short: "CareerPath - match skills and resumes to job roles",
	Long: `CareerPath keeps a graph of job roles, skills and courses, indexes job roles
for semantic search, and recommends roles for a skill list or an uploaded resume.

Example usage:
  careerpath import data/*.jsonl             # Load job-skill rows into the graph
  careerpath index                           # Build the job-role index
  careerpath recommend --skills "Python,SQL" # Rank job roles for skills
  careerpath ask -q "What skills are needed for a Data Scientist?"
  careerpath serve                           # Serve the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := godotenv.Load(filepath.Join(rootDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		debug := debugLog || strings.EqualFold(cfg.Logging.Level, "debug")
		log, err = logger.New(jsonLog || cfg.Logging.JSON, debug)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./careerpath.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory holding .careerpath/ (default is current directory)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write logs as JSON")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

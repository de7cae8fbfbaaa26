// Package main provides the interview_prep command line.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "interview_prep",
	Short: "Interview Q&A pack generator",
	Long: `interview_prep turns a resume and an optional job description into a tailored interview
preparation pack: parsed documents, company research, 30 ranked questions with answers, a PDF
and an optional e-mail delivery.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError ends the process with code after the command has already reported the outcome.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// normalizeFlagName accepts underscore spellings such as --output_dir.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

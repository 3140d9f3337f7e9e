package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	engine "github.com/medilens/medilens-api/internal/analysis"
	"github.com/medilens/medilens-api/internal/corpus"
)

var (
	corpusPath string
	pretty     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "rxanalyze",
	Short: "Analyse OCR text of a prescription offline",
	Long: `rxanalyze runs the prescription analysis engine over a text file,
or stdin when no file is given, and prints JSON.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "training_data.json", "path to the training data corpus")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine diagnostics to stderr")
}

func newAnalyzer(cmd *cobra.Command) *engine.Analyzer {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()

	c, err := corpus.Load(corpusPath)
	switch {
	case errors.Is(err, corpus.ErrNotFound):
		logger.Debug().Str("path", corpusPath).Msg("No training data found")
	case err != nil:
		logger.Warn().Err(err).Msg("Continuing without training data")
	}
	return engine.NewAnalyzer(c, engine.WithLogger(logger))
}

// readInput returns the contents of args[0], or stdin when no file is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		raw []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("input is empty")
	}
	return text, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

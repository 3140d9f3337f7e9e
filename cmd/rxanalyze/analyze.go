package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	engine "github.com/medilens/medilens-api/internal/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Print the Bengali analysis report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		return writeJSON(cmd, newAnalyzer(cmd).GenerateMedicalAnalysis(text))
	},
}

var correctCmd = &cobra.Command{
	Use:   "correct [file]",
	Short: "Print the OCR-corrected text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), engine.CorrectOCRText(text))
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Print the extracted patient, medication and test details",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		corrected := engine.CorrectOCRText(text)
		if corrected == "" {
			return errors.New("input has no text after correction")
		}
		return writeJSON(cmd, newAnalyzer(cmd).ExtractMedicalInfo(corrected))
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd, correctCmd, extractCmd)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-enhancer/internal/config"
	"github.com/jonathan/resume-enhancer/internal/schema"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Enhance a structured resume JSON file",
	Long:  "Rewrite resume content with professional, ATS-friendly phrasing. By default the whole document is enhanced; --entry limits the rewrite to a single experience entry.",
	RunE:  runEnhance,
}

var (
	enhanceInputFile  string
	enhanceOutputFile string
	enhanceEntry      int
	enhanceConfigFile string
)

func init() {
	enhanceCmd.Flags().StringVarP(&enhanceInputFile, "in", "i", "", "Path to resume JSON file (required)")
	enhanceCmd.Flags().StringVarP(&enhanceOutputFile, "out", "o", "", "Path to output JSON file (default: stdout)")
	enhanceCmd.Flags().IntVar(&enhanceEntry, "entry", -1, "Enhance only the experience entry at this index")
	enhanceCmd.Flags().StringVar(&enhanceConfigFile, "config", "", "Path to JSON config file")

	if err := enhanceCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(enhanceCmd)
}

func runEnhance(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(enhanceConfigFile)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(enhanceInputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	resume, err := schema.Validate(content)
	if err != nil {
		return fmt.Errorf("input is not a valid resume: %w", err)
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if enhanceEntry >= 0 {
		if enhanceEntry >= len(resume.Experience) {
			return fmt.Errorf("experience entry %d out of range (resume has %d)", enhanceEntry, len(resume.Experience))
		}
		entry, err := p.Enhancer.EnhanceExperience(ctx, resume.Experience[enhanceEntry])
		if err != nil {
			return fmt.Errorf("failed to enhance experience entry: %w", err)
		}
		resume.Experience[enhanceEntry] = entry
	} else {
		enhanced, err := p.Enhancer.EnhanceResume(ctx, resume)
		if err != nil {
			return fmt.Errorf("failed to enhance resume: %w", err)
		}
		resume = enhanced
	}

	blob, err := resume.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal resume: %w", err)
	}

	return writeOutput(enhanceOutputFile, blob)
}

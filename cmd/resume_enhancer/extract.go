package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-enhancer/internal/config"
	"github.com/jonathan/resume-enhancer/internal/ingest"
	"github.com/jonathan/resume-enhancer/internal/session"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured resume JSON from a PDF or DOCX file",
	Long:  "Extract a resume file into structured JSON. The output validates against the resume schema; unreadable or non-resume files fail without partial output.",
	RunE:  runExtract,
}

var (
	extractInputFile  string
	extractOutputFile string
	extractSave       bool
	extractConfigFile string
)

func init() {
	extractCmd.Flags().StringVarP(&extractInputFile, "in", "i", "", "Path to resume file, .pdf or .docx (required)")
	extractCmd.Flags().StringVarP(&extractOutputFile, "out", "o", "", "Path to output JSON file (default: stdout)")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Persist the extracted resume to the configured store")
	extractCmd.Flags().StringVar(&extractConfigFile, "config", "", "Path to JSON config file")

	if err := extractCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(extractConfigFile)
	if err != nil {
		return err
	}

	payload, err := ingest.FromFile(extractInputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	ctx := context.Background()
	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	sess := session.New(session.Config{
		Extractor: p.Extractor,
		Enhancer:  p.Enhancer,
		Store:     p.Store,
		Notify: func(n session.Notice) {
			if n.Error {
				_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Description)
			}
		},
	})

	if err := sess.Submit(ctx, payload.Encode()); err != nil {
		return fmt.Errorf("failed to extract resume: %w", err)
	}

	blob, err := sess.Export()
	if err != nil {
		return fmt.Errorf("failed to export resume: %w", err)
	}

	if err := writeOutput(extractOutputFile, blob); err != nil {
		return err
	}

	if extractSave {
		saved, err := sess.Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to save resume: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "Saved resume %s\n", saved.ID)
	}

	return nil
}

// writeOutput writes JSON to a file, or stdout when no path is given.
func writeOutput(path string, blob []byte) error {
	if path == "" {
		_, _ = os.Stdout.Write(blob)
		_, _ = fmt.Fprintln(os.Stdout)
		return nil
	}
	if err := os.WriteFile(path, blob, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "Output: %s\n", path)
	return nil
}

// Package main provides the entry point for the resume enhancer CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_enhancer",
	Short: "Resume Enhancer pipeline",
	Long:  "Resume Enhancer extracts structured resume data from PDF and DOCX files and rewrites it with ATS-friendly, professional phrasing via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

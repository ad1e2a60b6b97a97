/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/lingodoc/internal/job"
	"github.com/valpere/lingodoc/internal/pipeline"
)

var (
	inputFile    string
	sourceLang   string
	targetLang   string
	providerName string
	userID       string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a document file",
	Long: `Translate a document through the configured LLM provider (with
credential fallback across all supported providers), reusing translation
memory matches and per-user retrieval context.

Supported input formats: .txt, .md

The command submits a background job and polls its progress until the job
reaches a terminal state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()

		j, err := a.pipeline.Submit(ctx, pipeline.Request{
			SourceFile:       inputFile,
			OriginalFileName: filepath.Base(inputFile),
			SourceLanguage:   sourceLang,
			TargetLanguage:   targetLang,
			Provider:         providerName,
			UserID:           userID,
		})
		if err != nil {
			return fmt.Errorf("submission failed: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Job %s submitted\n", j.ID)

		final, err := pollJob(ctx, a.jobs, j.ID)
		if err != nil {
			return err
		}

		if final.Status == job.StatusFailed {
			return fmt.Errorf("translation failed: %s", final.ErrorMessage)
		}

		fmt.Fprintf(os.Stderr, "Translation complete\n")
		if final.Details != nil {
			fmt.Fprintf(os.Stderr, "  provider: %s  chunks: %d  tm hits: %d  confidence: %.2f\n",
				final.Details.Provider, final.Details.ChunkCount,
				final.Details.TMMatchCount, final.Details.ConfidenceScore)
		}
		fmt.Println(final.DownloadURL)
		return nil
	},
}

// pollJob watches a job until it reaches a terminal state, printing progress
// changes along the way.
func pollJob(ctx context.Context, jobs job.Registry, id string) (*job.Job, error) {
	lastProgress := -1.0
	for {
		j, err := jobs.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if j == nil {
			return nil, fmt.Errorf("job %s disappeared", id)
		}
		if j.Progress != lastProgress {
			fmt.Fprintf(os.Stderr, "  progress: %3.0f%%\n", j.Progress*100)
			lastProgress = j.Progress
		}
		if j.Status.Terminal() {
			return j, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "file", "f", "", "input document file (required)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "source language code (auto to detect)")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "target language code (required)")
	translateCmd.Flags().StringVarP(&providerName, "provider", "p", "", "LLM provider (default from config)")
	translateCmd.Flags().StringVarP(&userID, "user", "u", "", "user id for per-user settings and context")

	translateCmd.MarkFlagRequired("file")
	translateCmd.MarkFlagRequired("target")
}

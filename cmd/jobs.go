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

	"github.com/spf13/cobra"
)

var jobsOwner string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage translation jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		jobs, err := a.jobs.List(context.Background(), jobsOwner)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs found")
			return nil
		}

		for _, j := range jobs {
			fmt.Printf("%s  %-10s  %3.0f%%  %s -> %s  %s\n",
				j.ID, j.Status, j.Progress*100,
				orUnknown(j.SourceLanguage), j.TargetLanguage, j.OriginalFileName)
		}
		return nil
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show one job's status and details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		j, err := a.jobs.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		if j == nil {
			return fmt.Errorf("job %s not found", args[0])
		}

		fmt.Printf("id:        %s\n", j.ID)
		fmt.Printf("status:    %s\n", j.Status)
		fmt.Printf("progress:  %.0f%%\n", j.Progress*100)
		fmt.Printf("file:      %s\n", j.OriginalFileName)
		fmt.Printf("languages: %s -> %s\n", orUnknown(j.SourceLanguage), j.TargetLanguage)
		if j.DownloadURL != "" {
			fmt.Printf("output:    %s\n", j.DownloadURL)
		}
		if j.ErrorMessage != "" {
			fmt.Printf("error:     %s\n", j.ErrorMessage)
		}
		if d := j.Details; d != nil {
			fmt.Printf("details:   provider=%s chunks=%d tm_hits=%d rag=%t confidence=%.2f elapsed=%.1fs\n",
				d.Provider, d.ChunkCount, d.TMMatchCount, d.RAGEnabled, d.ConfidenceScore, d.ElapsedSeconds)
		}
		return nil
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its artifacts (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := a.pipeline.Delete(context.Background(), args[0], jobsOwner)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("job %s not found", args[0])
		}
		fmt.Printf("Deleted job %s\n", args[0])
		return nil
	},
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsStatusCmd, jobsDeleteCmd)

	jobsCmd.PersistentFlags().StringVarP(&jobsOwner, "user", "u", "", "user id (owner filter)")
}

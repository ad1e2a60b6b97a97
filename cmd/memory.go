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
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the translation memory",
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored translation units",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		units, err := a.memory.List(context.Background())
		if err != nil {
			return err
		}
		if len(units) == 0 {
			fmt.Println("Translation memory is empty")
			return nil
		}

		for _, u := range units {
			langs := make([]string, 0, len(u.Variants))
			for lang := range u.Variants {
				langs = append(langs, lang)
			}
			sort.Strings(langs)

			fmt.Printf("%s  [%s]  updated %s\n",
				u.ID, strings.Join(langs, ","), u.LastUpdated.Format("2006-01-02 15:04"))
			for _, lang := range langs {
				fmt.Printf("    %s: %s\n", lang, truncate(u.Variants[lang], 70))
			}
		}
		return nil
	},
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.memory.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("units:    %d\n", stats.Units)
		fmt.Printf("variants: %d\n", stats.Variants)
		return nil
	},
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryListCmd, memoryStatsCmd)
}

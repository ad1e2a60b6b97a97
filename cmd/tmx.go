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

	"github.com/valpere/lingodoc/internal/memory"
)

var (
	tmxSourceLang string
	tmxTargetLang string
)

var tmxCmd = &cobra.Command{
	Use:   "tmx",
	Short: "Import and export translation memory in TMX format",
}

var tmxImportCmd = &cobra.Command{
	Use:   "import <file.tmx>",
	Short: "Merge a TMX file into the translation memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.memory.ImportTMX(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Imported %s: %d units (%d new, %d updated)\n",
			summary.Filename, summary.UnitsParsed, summary.UnitsNew, summary.UnitsUpdated)
		return nil
	},
}

var tmxExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a language pair from the translation memory to a TMX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()

		units, err := a.memory.List(ctx)
		if err != nil {
			return err
		}

		var pairs []memory.Pair
		for _, u := range units {
			src, okSrc := u.Variants[tmxSourceLang]
			tgt, okTgt := u.Variants[tmxTargetLang]
			if okSrc && okTgt {
				pairs = append(pairs, memory.Pair{SourceText: src, TargetText: tgt})
			}
		}
		if len(pairs) == 0 {
			return fmt.Errorf("no %s -> %s pairs in translation memory", tmxSourceLang, tmxTargetLang)
		}

		path, err := a.memory.ExportTMX(ctx, pairs, tmxSourceLang, tmxTargetLang, a.cfg.TMXDir)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d pairs to %s\n", len(pairs), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tmxCmd)
	tmxCmd.AddCommand(tmxImportCmd, tmxExportCmd)

	tmxExportCmd.Flags().StringVarP(&tmxSourceLang, "source", "s", "", "source language code (required)")
	tmxExportCmd.Flags().StringVarP(&tmxTargetLang, "target", "t", "", "target language code (required)")
	tmxExportCmd.MarkFlagRequired("source")
	tmxExportCmd.MarkFlagRequired("target")
}

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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "lingodoc",
	Short: "Document translation with LLM providers, translation memory, and RAG",
	Long: `lingodoc translates documents through LLM providers with cascading
credential fallback, reusing previous translations from a TMX-compatible
translation memory and retrieving per-user context for the prompts.

Supported providers: openai, anthropic, google, groq, cohere, huggingface,
deepseek, siliconflow.

Use "lingodoc translate --help" for translation options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (YAML)")
}

package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/willpenman/llm-philosophy/runner"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List every model in the catalogs",
	RunE:  runModels,
}

func runModels(*cobra.Command, []string) error {
	var lastKey string
	for _, spec := range runner.EnumerateModels(buildProviders()) {
		if spec.StorageKey != lastKey {
			color.Cyan("%s", spec.StorageKey)
			lastKey = spec.StorageKey
		}
		fmt.Printf("  %-45s %s\n", spec.Model, spec.DisplayName)
	}
	return nil
}

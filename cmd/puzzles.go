package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/willpenman/llm-philosophy/core/puzzle"
)

var puzzlesCmd = &cobra.Command{
	Use:   "puzzles",
	Short: "List the puzzle fixtures",
	RunE:  runPuzzles,
}

func runPuzzles(*cobra.Command, []string) error {
	puzzles, err := puzzle.LoadAll(cfg.Paths.PuzzleDir)
	if err != nil {
		return err
	}
	if len(puzzles) == 0 {
		fmt.Printf("no puzzles under %s\n", cfg.Paths.PuzzleDir)
		return nil
	}
	for _, p := range puzzles {
		version := p.Version
		if version == "" {
			version = "?"
		}
		fmt.Printf("%-20s v%-3s %s\n", p.Name, version, p.Title)
	}
	return nil
}

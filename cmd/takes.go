package cmd

import (
	"fmt"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/service"

	"github.com/spf13/cobra"
)

var takesCmd = &cobra.Command{
	Use:   "takes",
	Short: "List recorded takes",
	Long:  `List recorded vocal takes in the takes directory, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg, audio.NewPortAudioBackend())

		takes, err := svc.ListTakes()
		if err != nil {
			return fmt.Errorf("failed to list takes: %w", err)
		}

		if len(takes) == 0 {
			fmt.Printf("No takes found in %s\n", cfg.Output.TakesDirectory)
			return nil
		}

		fmt.Printf("Takes in %s:\n\n", cfg.Output.TakesDirectory)
		for i, take := range takes {
			fmt.Printf("  %d. %s  %s  %s\n", i+1, take.Name, take.SizeHuman, take.ModTimeHuman)
		}
		return nil
	},
}

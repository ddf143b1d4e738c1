package cmd

import (
	"fmt"
	"strings"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/service"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [backing-track]",
	Short: "Execute pipeline steps against a backing track",
	Long: `Execute the specified pipeline steps against a backing track file.
Use -p to specify which steps to run, e.g. -p rmp to record a take, mix it
over the backing track, and play the result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backingPath := args[0]

		if pipeline == "" {
			return fmt.Errorf("no pipeline specified, use -p flag (e.g., -p rmp)")
		}

		svc := service.New(cfg, audio.NewPortAudioBackend())
		defer svc.Shutdown()

		return runSteps(svc, backingPath, "", "", []rune(strings.ToLower(pipeline)))
	},
}

package cmd

import (
	"fmt"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/service"

	"github.com/spf13/cobra"
)

var mixCmd = &cobra.Command{
	Use:   "mix [backing-track] [take]",
	Short: "Mix a recorded take over a backing track",
	Long: `Mix a recorded take over a backing track with configurable gains.
The result is normalized when it would clip and written to the exports
directory. Without a take argument the most recent recording is used.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		backingGain, _ := cmd.Flags().GetFloat64("backing-gain")
		takeGain, _ := cmd.Flags().GetFloat64("take-gain")
		outputName, _ := cmd.Flags().GetString("output")

		svc := service.New(cfg, audio.NewPortAudioBackend())

		backingPath := args[0]
		takePath := ""
		if len(args) == 2 {
			takePath = args[1]
		} else {
			takes, err := svc.ListTakes()
			if err != nil {
				return fmt.Errorf("failed to list takes: %w", err)
			}
			if len(takes) == 0 {
				return fmt.Errorf("no recorded takes found in %s", cfg.Output.TakesDirectory)
			}
			takePath = takes[0].Path
			fmt.Printf("Using most recent take: %s\n", takes[0].Name)
		}

		fmt.Printf("Backing gain: %.2f\n", backingGain)
		fmt.Printf("Take gain: %.2f\n", takeGain)

		outPath, err := svc.MixTake(backingPath, takePath, service.MixOptions{
			BackingGain: backingGain,
			TakeGain:    takeGain,
			OutputName:  outputName,
		})
		if err != nil {
			return fmt.Errorf("mixing failed: %w", err)
		}

		fmt.Printf("Mix exported: %s\n", outPath)

		return executePipeline(svc, backingPath, takePath, outPath, 'm')
	},
}

func init() {
	mixCmd.Flags().Float64P("backing-gain", "b", 1.0, "backing track gain")
	mixCmd.Flags().Float64P("take-gain", "t", 1.0, "take gain")
	mixCmd.Flags().StringP("output", "o", "", "output file name (default derived from backing track)")
}

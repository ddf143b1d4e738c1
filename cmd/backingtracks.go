package cmd

import (
	"fmt"
	"strings"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/service"

	"github.com/spf13/cobra"
)

var backingtracksCmd = &cobra.Command{
	Use:     "backingtracks",
	Aliases: []string{"bt"},
	Short:   "Manage backing tracks",
	Long:    `List, select, and import backing tracks for playback and mixing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg, audio.NewPortAudioBackend())

		backingtracks, err := svc.ListBackingtracks()
		if err != nil {
			return fmt.Errorf("failed to list backing tracks: %w", err)
		}

		if len(backingtracks) == 0 {
			fmt.Printf("No backing tracks found in %s\n", cfg.Output.BackingtracksDirectory)
			return nil
		}

		fmt.Printf("Backing tracks in %s:\n\n", cfg.Output.BackingtracksDirectory)
		for i, bt := range backingtracks {
			marker := "  "
			if bt.IsSelected {
				marker = "* "
			}
			line := fmt.Sprintf("%s%d. %s  %s  %s", marker, i+1, bt.Name, bt.SizeHuman, bt.ModTimeHuman)
			if len(bt.RemovedStems) > 0 {
				line += fmt.Sprintf("  (no %s)", strings.Join(bt.RemovedStems, ", "))
			}
			fmt.Println(line)
		}
		return nil
	},
}

var backingtracksSelectCmd = &cobra.Command{
	Use:   "select [name]",
	Short: "Select a backing track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg, audio.NewPortAudioBackend())

		if err := svc.SetSelectedBackingtrack(args[0]); err != nil {
			return fmt.Errorf("failed to select backing track: %w", err)
		}
		fmt.Printf("Selected backing track: %s\n", args[0])
		return nil
	},
}

var backingtracksImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import an audio file as a backing track",
	Long: `Copy a WAV or FLAC file into the backing tracks directory. Use
--removed to record which instruments were removed from the track; the
file is then renamed accordingly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, _ := cmd.Flags().GetStringSlice("removed")

		svc := service.New(cfg, audio.NewPortAudioBackend())

		if err := svc.ImportBackingtrack(args[0], removed); err != nil {
			return fmt.Errorf("failed to import backing track: %w", err)
		}
		fmt.Println("Backing track imported")
		return nil
	},
}

var backingtracksConvertCmd = &cobra.Command{
	Use:   "convert [take-name]",
	Short: "Convert a recorded take into a backing track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg, audio.NewPortAudioBackend())

		if err := svc.ConvertTakeToBackingtrack(args[0]); err != nil {
			return fmt.Errorf("failed to convert take: %w", err)
		}
		fmt.Printf("Take converted to backing track: %s\n", args[0])
		return nil
	},
}

func init() {
	backingtracksImportCmd.Flags().StringSlice("removed", nil, "instruments removed from the track (e.g. vocals,drums)")

	backingtracksCmd.AddCommand(backingtracksSelectCmd)
	backingtracksCmd.AddCommand(backingtracksImportCmd)
	backingtracksCmd.AddCommand(backingtracksConvertCmd)
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/service"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play an audio file through the output device",
	Long: `Play a WAV or FLAC file through the configured output device.
Without a file argument the selected backing track is played. Use --start
and --end to restrict playback to a window of the track.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetFloat64("start")
		end, _ := cmd.Flags().GetFloat64("end")
		volume, _ := cmd.Flags().GetFloat64("volume")

		svc := service.New(cfg, audio.NewPortAudioBackend())

		var err error
		if len(args) == 1 {
			err = svc.LoadTrack(args[0])
		} else {
			err = svc.LoadSelectedBackingtrack()
		}
		if err != nil {
			return fmt.Errorf("failed to load track: %w", err)
		}

		if start > 0 || end > 0 {
			if err := svc.SetTrim(start, end); err != nil {
				return fmt.Errorf("failed to set trim window: %w", err)
			}
		}
		if err := svc.SetVolume(volume); err != nil {
			return fmt.Errorf("failed to set volume: %w", err)
		}

		status := svc.GetPlaybackStatus()
		fmt.Printf("Playing: %s (%.1fs)\n", status.Track, status.Duration)

		return playUntilDone(svc)
	},
}

// playUntilDone starts playback and blocks until the track finishes or
// the user interrupts with Ctrl+C.
func playUntilDone(svc service.Booth) error {
	if err := svc.Play(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			fmt.Println()
			return svc.StopPlayback()
		case <-ticker.C:
			status := svc.GetPlaybackStatus()
			if !status.Playing {
				fmt.Println()
				return nil
			}
			fmt.Printf("\r%s / %s  level %s",
				formatElapsed(status.Position), formatElapsed(status.Duration), levelBar(status.Level))
		}
	}
}

func init() {
	playCmd.Flags().Float64P("start", "s", 0, "trim window start in seconds")
	playCmd.Flags().Float64P("end", "e", 0, "trim window end in seconds (0 = track end)")
	playCmd.Flags().Float64("volume", 1.0, "playback gain (0.0 to 1.0)")
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/capture"
	"github.com/omotivaudio/vocalbooth/internal/service"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a vocal take from the microphone",
	Long: `Record audio from the configured input device with live level metering.
The take is saved as a WAV file in the takes directory. Recording stops on
Ctrl+C or when the maximum duration is reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg, audio.NewPortAudioBackend())

		slog.Info("Starting recording", "device", cfg.Audio.InputDevice,
			"sample_rate", cfg.Audio.SampleRate, "channels", cfg.Audio.Channels)

		if err := svc.StartRecording(); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		fmt.Println("Recording... Press Ctrl+C to stop")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		meter := time.NewTicker(200 * time.Millisecond)
		defer meter.Stop()

	loop:
		for {
			select {
			case <-sigChan:
				break loop
			case <-meter.C:
				status := svc.GetRecordingStatus()
				if status.Status != capture.StatusRecording {
					// Max duration reached or the stream failed.
					break loop
				}
				fmt.Printf("\r%s  level %s", formatElapsed(status.Elapsed), levelBar(status.Level))
			}
		}
		fmt.Println()

		status := svc.GetRecordingStatus()
		if status.Status != capture.StatusRecording {
			// Already stopped by the duration ceiling or an error.
			if status.Session != nil && status.Status == capture.StatusStandby {
				fmt.Printf("Recording saved: %s\n", status.Session.OutputFile)
			}
			if last := svc.GetLastError(); last != "" {
				return fmt.Errorf("recording failed: %s", last)
			}
			return nil
		}

		slog.Info("Stopping recording...")
		path, err := svc.StopRecording()
		if err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}
		if status.Overflowed {
			fmt.Println("Warning: capture buffer overflowed, some audio was dropped")
		}
		fmt.Printf("Recording saved: %s\n", path)

		return executePipeline(svc, "", path, "", 'r')
	},
}

// formatElapsed renders a duration as mm:ss
func formatElapsed(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// levelBar renders a 0..1 level as a fixed-width text meter
func levelBar(level float64) string {
	const width = 20
	filled := int(level * width)
	if filled > width {
		filled = width
	}
	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '-'
		}
	}
	return "[" + string(bar) + "]"
}

package cmd

import (
	"fmt"
	"runtime"

	"github.com/omotivaudio/vocalbooth/internal/audio"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio devices",
	Long:  `List all audio input and output devices available to the host.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listAvailableDevices()
	},
}

// listAvailableDevices prints the host's audio devices grouped by direction
func listAvailableDevices() error {
	backend := audio.NewPortAudioBackend()
	if err := backend.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize audio host: %w", err)
	}
	defer backend.Terminate()

	devices, err := backend.Devices()
	if err != nil {
		return fmt.Errorf("failed to list audio devices: %w", err)
	}

	fmt.Printf("🎤 Audio Devices (%s)\n", runtime.GOOS)
	fmt.Printf("═══════════════════════════════════════\n\n")

	fmt.Println("INPUT DEVICES:")
	count := 0
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		count++
		marker := "  "
		if d.IsDefaultInput {
			marker = "* "
		}
		fmt.Printf("%s%d. %s (%d ch, %.0f Hz)\n", marker, count, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	if count == 0 {
		fmt.Println("  (none found)")
	}

	fmt.Println("\nOUTPUT DEVICES:")
	count = 0
	for _, d := range devices {
		if d.MaxOutputChannels == 0 {
			continue
		}
		count++
		marker := "  "
		if d.IsDefaultOutput {
			marker = "* "
		}
		fmt.Printf("%s%d. %s (%d ch, %.0f Hz)\n", marker, count, d.Name, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	if count == 0 {
		fmt.Println("  (none found)")
	}

	fmt.Println("\n* = system default")
	return nil
}

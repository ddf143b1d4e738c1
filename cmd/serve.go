package cmd

import (
	"fmt"
	"log/slog"

	"github.com/omotivaudio/vocalbooth/internal/audio"
	"github.com/omotivaudio/vocalbooth/internal/server"
	"github.com/omotivaudio/vocalbooth/internal/service"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the control server for remote operation",
	Long: `Start the VocalBooth HTTP control server. The JSON API allows
recording, playback, and mixing to be driven from another device on the
same network.

The server will display the local network URL on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")

		svc := service.New(cfg, audio.NewPortAudioBackend())
		defer svc.Shutdown()

		srv := server.New(svc, cfg, port)

		slog.Info("VocalBooth control server starting", "port", port, "config", cfgFile)

		// Start blocks serving HTTP
		if err := srv.Start(); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "8080", "port for the control server")
}

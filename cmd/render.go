package main

import (
	"github.com/spf13/cobra"

	"github.com/lone-faerie/smsgateway/config"
	"github.com/lone-faerie/smsgateway/device"
	"github.com/lone-faerie/smsgateway/gammurc"
	"github.com/lone-faerie/smsgateway/log"
)

// Flags for [RenderCommand]
var (
	Connection string // Connection keyword to render
)

// RenderCommand prints the gammu configuration.
var RenderCommand = &cobra.Command{
	Use:   "render",
	Short: "Print the gammu config",
	Long: `Print the gammu configuration that "run" would write, without writing it.

If the device is "auto" the device is selected from the ones found on the system.`,
	GroupID: "tools",
	Args:    cobra.NoArgs,
	PreRunE: loadToolConfig,
	RunE:    renderConfig,
}

func init() {
	RenderCommand.Flags().SortFlags = false
	addConfigFlags(RenderCommand)
	RenderCommand.Flags().StringVar(&Connection, "connection", "", "Connection keyword (default from config)")

	RootCommand.AddCommand(RenderCommand)
}

func renderConfig(cmd *cobra.Command, _ []string) error {
	dev := cfg.Device.Path
	if cfg.Device.Auto() {
		infos, err := scanner.Scan()
		if err != nil {
			log.Warn("Unable to scan serial devices", "error", err)
		}
		sel := device.Select("", infos)
		log.Info("Device selected", "device", sel.Path, "reason", sel.Reason)
		if dev = sel.Path; dev == "" {
			dev = config.DefaultDevicePath
		}
	}

	conn := cfg.Gammu.Connection
	if Connection != "" {
		conn = Connection
	}
	return gammurc.Write(cmd.OutOrStdout(), dev, conn)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/lone-faerie/smsgateway/internal/build"
	"github.com/lone-faerie/smsgateway/internal/cleanup"
)

// RootCommand is the [cobra.Command] every other command is added to.
var RootCommand = &cobra.Command{
	Use:     "smsgateway [command]",
	Short:   "Prepare a USB GSM modem and start the SMS gateway",
	Version: build.Version(),
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup.Cleanup()
	},
	SilenceErrors:     true,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
}

func init() {
	RootCommand.AddGroup(
		&cobra.Group{ID: "commands", Title: "Commands:"},
		&cobra.Group{ID: "tools", Title: "Tools:"},
	)
	RootCommand.SetHelpTemplate(RootCommand.HelpTemplate() + "\n" + fullDocsFooter + "\n")
}

//go:build docgen

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var DocGenCommand = &cobra.Command{
	Use:    "docgen",
	Short:  "Generate documentation",
	Hidden: true,
}

var ManDocGenCommand = &cobra.Command{
	Use:   "man [dir]",
	Short: "Generate man pages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir := "docs/man"
		if len(args) > 0 {
			dir = args[0]
		}
		hdr := &doc.GenManHeader{
			Title:   "SMSGATEWAY",
			Section: "1",
			Source:  "smsgateway " + RootCommand.Version,
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
		return doc.GenManTree(RootCommand, hdr, dir)
	},
}

var MarkdownDocGenCommand = &cobra.Command{
	Use:   "markdown [dir]",
	Short: "Generate markdown pages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir := "docs/md"
		if len(args) > 0 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
		return doc.GenMarkdownTree(RootCommand, dir)
	},
}

func init() {
	DocGenCommand.AddCommand(ManDocGenCommand, MarkdownDocGenCommand)
	RootCommand.AddCommand(DocGenCommand)
}

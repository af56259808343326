package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lone-faerie/smsgateway/device"
)

// Flags for [DevicesCommand]
var (
	DevicesJSON bool // Print the devices as JSON
	SaveList    bool // Save the device list to the configured path
)

// scanner discovers the devices listed by [DevicesCommand].
var scanner = device.DefaultScanner

// DevicesCommand lists the serial devices found on the system.
var DevicesCommand = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List serial devices",
	Long: `List the ttyUSB and ttyACM serial devices, with their /dev/serial/by-id links and USB metadata, and the device that would be selected.

A configured device always wins. Otherwise a single device is selected, and among several the first Huawei modem is selected.`,
	GroupID: "tools",
	Args:    cobra.NoArgs,
	PreRunE: loadToolConfig,
	RunE:    listDevices,
}

func init() {
	DevicesCommand.Flags().SortFlags = false
	addConfigFlags(DevicesCommand)
	DevicesCommand.Flags().BoolVarP(&DevicesJSON, "json", "j", false, "Print the devices as JSON")
	DevicesCommand.Flags().BoolVarP(&SaveList, "save", "s", false, "Save the device list to the configured path")

	RootCommand.AddCommand(DevicesCommand)
}

func listDevices(cmd *cobra.Command, _ []string) error {
	infos, err := scanner.Scan()
	if err != nil {
		return err
	}

	if SaveList && cfg.Device.ListPath != "" {
		if err = device.SaveList(cfg.Device.ListPath, infos); err != nil {
			return err
		}
	}

	configured := cfg.Device.Path
	if cfg.Device.Auto() {
		configured = ""
	}
	sel := device.Select(configured, infos)

	w := cmd.OutOrStdout()
	if DevicesJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Devices  []device.Info `json:"devices"`
			Selected string        `json:"selected"`
			Reason   string        `json:"reason"`
		}{infos, sel.Path, sel.Reason})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tBY-ID\tVENDOR\tPRODUCT\tMODEL\tHUAWEI")
	for i := range infos {
		info := &infos[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
			info.Path, orDash(info.ByIDPath), orDash(info.Vendor), orDash(info.Product), orDash(info.Model), device.IsHuawei(info))
	}
	if err = tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if sel.Path == "" {
		fmt.Fprintf(w, "Selected: none (%s)\n", sel.Reason)
	} else {
		fmt.Fprintf(w, "Selected: %s (%s)\n", sel.Path, sel.Reason)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

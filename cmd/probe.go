package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lone-faerie/smsgateway/diagnostics"
	"github.com/lone-faerie/smsgateway/gammu"
	"github.com/lone-faerie/smsgateway/gammurc"
	"github.com/lone-faerie/smsgateway/log"
	"github.com/lone-faerie/smsgateway/modem"
)

// Flags for [ProbeCommand]
var (
	Handshake bool // Also talk AT directly to the serial port
	WriteRC   bool // Write the gammu config with the working connection
)

// newRunner returns the [gammu.Runner] used by the tool commands.
var newRunner = func(binary string) gammu.Runner {
	return &gammu.ExecRunner{Binary: binary}
}

// ProbeCommand tries gammu connections against a device.
var ProbeCommand = &cobra.Command{
	Use:   "probe [flags] [device] [connection...]",
	Short: "Find a working gammu connection",
	Long: `Run "gammu identify" against the device once for every connection and report which work.

The device defaults to the configured one. The connections default to at115200, at9600 and at. Every connection is tried, and the first that works is reported. The results are appended to the probe log (default /tmp/gammu.log) and printed. The command exits with status 1 if no connection works.`,
	Example: `  smsgateway probe /dev/ttyUSB0
  smsgateway probe /dev/ttyUSB2 at19200 at
  smsgateway probe --handshake --write`,
	GroupID: "tools",
	PreRunE: loadToolConfig,
	RunE:    runProbe,

	DisableFlagsInUseLine: true,
}

func init() {
	ProbeCommand.Flags().SortFlags = false
	addConfigFlags(ProbeCommand)
	ProbeCommand.Flags().BoolVar(&Handshake, "handshake", false, "Also talk AT directly to the serial port")
	ProbeCommand.Flags().BoolVarP(&WriteRC, "write", "w", false, "Write the gammu config with the working connection")

	RootCommand.AddCommand(ProbeCommand)
}

func runProbe(cmd *cobra.Command, args []string) error {
	dev := cfg.Device.Path
	if len(args) > 0 {
		dev, args = args[0], args[1:]
	} else if cfg.Device.Auto() {
		return fmt.Errorf("no device given and the configured device is %q", dev)
	}

	conns := args
	if len(conns) == 0 {
		conns = cfg.Gammu.ProbeConnections
	}

	opts := gammu.ProbeOptions{
		Marker:  cfg.Gammu.SuccessMarker,
		Timeout: cfg.Gammu.ProbeTimeout,
	}
	if Handshake || cfg.Gammu.ATHandshake {
		opts.Handshake = modem.Handshake(cfg.Gammu.ProbeTimeout)
	}

	report, err := gammu.Probe(commandContext(cmd), newRunner(cfg.Gammu.Binary), dev, conns, opts)
	if report != nil {
		if werr := gammu.WriteProbeLog(cmd.OutOrStdout(), report); werr != nil {
			return werr
		}
		if cfg.Diagnostics.ProbeLog != "" {
			if lerr := diagnostics.AppendProbeLog(cfg.Diagnostics.ProbeLog, report); lerr != nil {
				log.Warn("Unable to save probe log", "path", cfg.Diagnostics.ProbeLog, "error", lerr)
			}
		}
	}
	if err != nil {
		cmd.PrintErrln(err)
		return &ExitError{err, 1}
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Working connection:", report.Connection)

	if WriteRC {
		if err = gammurc.WriteFile(cfg.Gammu.ConfigPath, dev, report.Connection); err != nil {
			return err
		}
		log.Info("Wrote gammu config", "path", cfg.Gammu.ConfigPath, "connection", report.Connection)
	}
	return nil
}

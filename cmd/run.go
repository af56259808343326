package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lone-faerie/smsgateway"
	"github.com/lone-faerie/smsgateway/log"
)

// Flags for [RunCommand]
var (
	NoExec bool // Stop after the bootstrap instead of starting the application
)

// handoff replaces the process with the gateway application.
var handoff = smsgateway.Handoff

// RunCommand is the main [cobra.Command], used for preparing the modem and
// starting the gateway application.
var RunCommand = &cobra.Command{
	Use:   "run [flags] [-- app args...]",
	Short: "Prepare the modem and start the gateway",
	Long: `Prepare the modem and replace this process with the SMS gateway application.

The configuration is loaded from the add-on options file (default /data/options.json), any yaml config files given with --config, the environment and finally the flags. The following environment variables are read, and passed on to the gateway application:

	- MQTT_HOST, MQTT_PORT, MQTT_USER, MQTT_PASSWORD
	- SERIAL_DEVICE
	- LOG_LEVEL (default info)

The gammu configuration is written for the serial device, then the device is waited on for up to 60 seconds, checking every 2 seconds. If the device never appears the likely causes are logged and the command exits with status 1. Once the device exists "gammu identify" is run once as a smoke test; a failing test is only a warning.

Arguments after -- are appended to the gateway application's command.`,
	Example: `  smsgateway run
  smsgateway run --device /dev/ttyUSB2 --log debug
  smsgateway run --broker 192.168.1.10:1883 --username sms --password p@55w0rd
  smsgateway run --no-exec`,
	GroupID: "commands",
	Args:    cobra.ArbitraryArgs,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if err = PrintBanner(cmd); err != nil {
			cmd.Println(err)
		}

		cfg, err = loadConfig(cmd)
		if err != nil {
			return
		}
		setLogHandler(cfg, log.LevelTrace)
		log.Info("Config loaded")
		log.Debug("MQTT broker", "addr", cfg.MQTT.Broker(), "device", cfg.Device.Path)
		return
	},
	RunE: runGateway,

	DisableFlagsInUseLine: true,
}

func init() {
	RunCommand.Flags().SortFlags = false
	addConfigFlags(RunCommand)
	addBrokerFlags(RunCommand)
	RunCommand.Flags().BoolVarP(&NoExec, "no-exec", "n", false, "Stop after the bootstrap instead of starting the application")

	RunCommand.SetHelpTemplate(RunCommand.HelpTemplate() + "\n" + fullDocsFooter + "\n")

	RootCommand.AddCommand(RunCommand)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runGateway(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := smsgateway.New(cfg).Run(ctx)
	if err != nil {
		var werr *smsgateway.WaitError
		switch {
		case errors.As(err, &werr):
			log.Error("Serial device not found", werr.Err, "device", werr.Device, "checks", werr.Attempts, "timeout", werr.Timeout)
			for _, cause := range werr.Causes() {
				log.Warn("Possible cause: " + cause)
			}
		case ctx.Err() != nil:
			log.Info("Interrupted")
		default:
			log.Error("Bootstrap failed", err)
		}
		return &ExitError{err, 1}
	}

	if !res.Config.Exec.Enabled {
		log.Info("Bootstrap done, not starting the gateway application", "device", res.Config.Device.Path, "connection", res.Config.Gammu.Connection)
		return nil
	}

	stop()
	if err = handoff(res.Config, args...); err != nil {
		log.Error("Unable to start the gateway application", err, "command", res.Config.Exec.Command)
		return &ExitError{err, 1}
	}
	return nil
}

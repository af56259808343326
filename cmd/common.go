package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/lone-faerie/smsgateway/config"
	"github.com/lone-faerie/smsgateway/internal/build"
	"github.com/lone-faerie/smsgateway/internal/cleanup"
	"github.com/lone-faerie/smsgateway/log"
)

// Flags shared by the commands
var (
	ConfigPath  []string // Path(s) to yaml config file
	OptionsPath string   // Path to the add-on options file
	Device      string   // Serial device of the modem, or 'auto'
	LogLevel    string   // Log level
	Broker      string   // MQTT broker address
	Port        int      // MQTT broker port
	Username    string   // MQTT broker username
	Password    string   // MQTT broker password
)

var cfg *config.Config

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&ConfigPath, "config", "c", nil, "Path(s) to yaml config file")
	cmd.Flags().StringVarP(&OptionsPath, "options", "o", config.DefaultOptionsPath, "Path to the add-on options file, empty to skip")
	cmd.Flags().StringVarP(&Device, "device", "d", "", "Serial device of the modem, or 'auto'")
	cmd.Flags().StringVarP(&LogLevel, "log", "l", "", "Log level")

	cmd.MarkFlagFilename("config", "yaml", "yml")
	cmd.MarkFlagFilename("options", "json", "yaml", "yml")
}

func addBrokerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&Broker, "broker", "b", "", "MQTT broker address")
	cmd.Flags().IntVarP(&Port, "port", "p", 1883, "MQTT broker port")
	cmd.Flags().StringVar(&Username, "username", "", "MQTT client username")
	cmd.Flags().StringVar(&Password, "password", "", "MQTT client password")
}

// loadConfig loads the config and applies the flags of cmd on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(OptionsPath, ConfigPath...)
	if err != nil {
		return nil, err
	}
	if err = flagsToConfig(c, cmd); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

const banner = `┌────────────────────────────────────────────────────────────┐
│                                                            │
│    ███████╗███╗   ███╗███████╗     ██████╗ ██╗    ██╗      │
│    ██╔════╝████╗ ████║██╔════╝    ██╔════╝ ██║    ██║      │
│    ███████╗██╔████╔██║███████╗    ██║  ███╗██║ █╗ ██║      │
│    ╚════██║██║╚██╔╝██║╚════██║    ██║   ██║██║███╗██║      │
│    ███████║██║ ╚═╝ ██║███████║    ╚██████╔╝╚███╔███╔╝      │
│    ╚══════╝╚═╝     ╚═╝╚══════╝     ╚═════╝  ╚══╝╚══╝       │
│                                                            │
│     Author: lone-faerie                                    │
│                                                            │
│     Version: {{printf "%%-18.18s" .Version}}                            │
│     Build Time: %-26.26s                 │
│                                                            │
└────────────────────────────────────────────────────────────┘
`

// BannerTemplate returns the string used for templating the banner.
func BannerTemplate() string {
	return fmt.Sprintf(banner, build.BuildTime())
}

// PrintBanner prints the banner to the given commands output.
func PrintBanner(cmd *cobra.Command) error {
	t := template.New("banner")

	template.Must(t.Parse(BannerTemplate()))

	return t.Execute(cmd.OutOrStdout(), cmd.Root())
}

const fullDocsFooter = `Full documentation is available at:
https://pkg.go.dev/github.com/lone-faerie/smsgateway`

// ExitError is an error that should cause the program to exit with the given code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// splitBroker splits a port off the end of addr. If addr has no port,
// port is returned unchanged.
func splitBroker(addr string, port int) (string, int) {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 || i == len(addr)-1 {
		return addr, port
	}
	p, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return addr, port
	}
	return addr[:i], p
}

func flagsToConfig(cfg *config.Config, cmd *cobra.Command) error {
	flags := cmd.Flags()

	if LogLevel != "" {
		var level log.Level

		if err := level.UnmarshalText([]byte(LogLevel)); err != nil {
			return err
		}

		cfg.Log.Level = level
	}

	if Device != "" {
		cfg.Device.Path = Device
	}

	if Broker != "" {
		cfg.MQTT.Host, cfg.MQTT.Port = splitBroker(Broker, cfg.MQTT.Port)
	}

	if f := flags.Lookup("port"); f != nil && f.Changed {
		cfg.MQTT.Port = Port
	}

	if Username != "" {
		cfg.MQTT.Username = Username
	}

	if Password != "" {
		cfg.MQTT.Password = Password
	}

	if f := flags.Lookup("no-exec"); f != nil && f.Changed && NoExec {
		cfg.Exec.Enabled = false
	}

	return nil
}

func setLogHandler(cfg *config.Config, minLevel log.Level) {
	var w io.Writer

	switch strings.ToLower(cfg.Log.Output) {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	case "discard":
		log.SetHandler(log.DiscardHandler)
		return
	default:
		f, err := os.OpenFile(cfg.Log.Output, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			log.Error(
				"Unable to open log file, deferring to stdout",
				err,
				"path", cfg.Log.Output,
			)

			w = os.Stdout
			break
		}

		w = f

		cleanup.Register(func() { f.Close() })
	}

	if cfg.Log.Level < minLevel {
		cfg.Log.Level = minLevel
	}

	log.SetLogLevel(cfg.Log.Level)

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		log.SetJSONHandler(w)
	case "text":
		log.SetTextHandler(w)
	default:
		log.SetOutput(w)
	}
}

// loadToolConfig loads the config for the commands that print to stdout.
// Logs go to stderr, at warning level or above unless --log is given.
func loadToolConfig(cmd *cobra.Command, _ []string) (err error) {
	cfg, err = loadConfig(cmd)
	if err != nil {
		return
	}
	if o := strings.ToLower(cfg.Log.Output); o == "" || o == "stdout" {
		cfg.Log.Output = "stderr"
	}
	minLevel := log.LevelWarn
	if LogLevel != "" {
		minLevel = log.LevelTrace
	}
	setLogHandler(cfg, minLevel)
	return
}

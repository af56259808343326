package smsgateway

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"

	"golang.org/x/sys/unix"

	"github.com/lone-faerie/smsgateway/config"
	"github.com/lone-faerie/smsgateway/log"
)

// execve replaces the process. It only returns on failure.
var execve = defaultExecve

func defaultExecve(path string, argv []string, env []string) error {
	return unix.Exec(path, argv, env)
}

// Handoff replaces the current process with the gateway application of cfg,
// with args appended to its command. The environment is the current one
// with the MQTT, serial device and log level variables set from cfg.
// Handoff only returns on failure, with the registered cleanup functions
// not yet run, so the caller can still log. Files the process opened are
// close-on-exec and do not leak into the application.
func Handoff(cfg *config.Config, args ...string) error {
	argv := append(slices.Clone(cfg.Exec.Command), args...)
	if len(argv) == 0 {
		return errors.New("no application command")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return err
	}

	env := cfg.Environ(os.Environ())
	log.Info("Starting gateway application", "path", path, "args", argv[1:], "device", cfg.Device.Path)
	if err = execve(path, argv, env); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

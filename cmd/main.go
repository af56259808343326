package main

import (
	"errors"
	"os"
)

func main() {
	if c, err := RootCommand.ExecuteC(); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}

		c.PrintErrln("Error:", err)
		c.Usage()
		os.Exit(1)
	}
}

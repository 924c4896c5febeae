// Command commando drives interactive command-line programs from YAML scripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/wagiedev/commando/fsutil"
	"github.com/wagiedev/commando/internal/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := command.NewRootCommand(fsutil.OS()).ExecuteContext(ctx)
	if err == nil {
		return
	}

	if exitErr, ok := errors.AsType[*command.ExitCodeError](err); ok {
		stop()
		os.Exit(exitErr.Code)
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	stop()
	os.Exit(1)
}

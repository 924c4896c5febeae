// Package commando drives interactive command-line programs.
//
// A Driver spawns a command, watches its output and answers prompts with
// scripted input, the way a person at the terminal would. It is meant for
// testing installers, scaffolders and other prompt-driven tools.
//
// # Basic Usage
//
// Register matchers, then run the command:
//
//	d, err := commando.New("./bin/app init", commando.WithCmdPath("."))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d.When(regexp.MustCompile(`Project name\?`), commando.Reply("demo\n")).
//	    When(regexp.MustCompile(`Overwrite\?`), commando.Reply(commando.Yes), commando.MatchMany()).
//	    EndWhen(regexp.MustCompile(`Done`), nil)
//
//	exit, err := d.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("exit code:", exit.Code)
//
// Every stdout chunk is checked against the matchers in registration order.
// The first one that matches fires and the rest are skipped for that chunk.
// A matcher fires once unless registered with MatchMany. Matchers added with
// EndWhen kill the subprocess instead of answering it.
//
// # Events
//
// OnError receives stderr output and OnExit receives the Exit of the
// subprocess, whether it finished on its own, failed or was killed:
//
//	d.OnError(func(text string) {
//	    fmt.Fprint(os.Stderr, text)
//	}).OnExit(func(exit commando.Exit) {
//	    if !exit.Success() {
//	        fmt.Println("failed:", exit.Err)
//	    }
//	})
//
// # Logging
//
// Output is echoed to the logger at info level unless WithSilent is set.
// Without WithLogger the echo goes to slog.Default() and diagnostics are
// discarded:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	d, err := commando.New("npm init", commando.WithLogger(logger))
//
// # Error Handling
//
// Spawn failures and non-zero exits are typed:
//
//	if _, err := d.Run(ctx); err != nil {
//	    if spawnErr, ok := errors.AsType[*commando.SpawnError](err); ok {
//	        log.Fatalf("could not start %s", spawnErr.Path)
//	    }
//	}
//
//	if procErr, ok := errors.AsType[*commando.ProcessError](exit.Err); ok {
//	    fmt.Println(procErr.Stderr)
//	}
//
// Filesystem and JSON helpers used alongside the driver live in package
// fsutil.
package commando

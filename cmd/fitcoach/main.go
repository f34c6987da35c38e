package main

import (
	"fmt"
	"log/slog"
	"os"
)

var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return 0
	}

	commands := map[string]func([]string) error{
		"serve":    cmdServe,
		"plan":     cmdPlan,
		"motivate": cmdMotivate,
		"image":    cmdImage,
		"speak":    cmdSpeak,
		"session":  cmdSession,
	}
	sub := args[0]
	if sub == "version" {
		fmt.Println(version)
		return 0
	}
	cmd, ok := commands[sub]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", sub)
		printUsage()
		return 2
	}
	if err := cmd(args[1:]); err != nil {
		slog.Error(sub+" failed", "err", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `fitcoach %s

Usage:
  fitcoach <subcommand> [flags]

Subcommands:
  serve     Run the HTTP API
  plan      Generate a workout and diet plan from a profile file
  motivate  Print a motivational quote and tips (--watch to refresh)
  image     Generate an image for an exercise or meal
  speak     Narrate text or a stored plan section to MP3
  session   Show or clear a stored session (session show|clear)
  version   Print version

Run "fitcoach <subcommand> -h" for flags.
`, version)
}

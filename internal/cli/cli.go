package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Stdio bundles the streams a command talks to.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(args []string, stdio Stdio) int
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	stdio := Stdio{In: stdin, Out: stdout, Err: stderr}
	if len(args) == 0 {
		printUsage(stdout)
		return ExitUsage
	}
	if isHelpArg(args[0]) {
		printUsage(stdout)
		return ExitOK
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}

	return cmd.Run(args[1:], stdio)
}

func findCommand(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  quizbank <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w, "\nUse \"quizbank <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

// parseFlags parses args and reports the exit code to return when parsing
// ends the command early.
func parseFlags(cmd *Command, flags *flag.FlagSet, args []string, stdio Stdio) (int, bool) {
	flags.SetOutput(stdio.Err)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printCommandUsage(cmd, stdio.Out)
			return ExitOK, false
		}
		fmt.Fprintf(stdio.Err, "invalid arguments: %v\n", err)
		printCommandUsage(cmd, stdio.Err)
		return ExitUsage, false
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(stdio.Err, "unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
		printCommandUsage(cmd, stdio.Err)
		return ExitUsage, false
	}
	return ExitOK, true
}

func command(name, summary string, usage []string, runner func(cmd *Command) func(args []string, stdio Stdio) int) *Command {
	cmd := &Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
	}
	cmd.Run = runner(cmd)
	return cmd
}

var commands = []*Command{
	command("check", "Validate and classify the question bank", []string{
		"quizbank check [--file bank.yaml] [--topic t] [--subtopic s] [--label l] [--kind k]",
		"               [--duplicates exclude|collapse] [--issues] [--xlsx out.xlsx] [--json]",
	}, runCheck),
	command("inspect", "Show one question's rows and verdict", []string{
		"quizbank inspect --id <n> [--json]",
	}, runInspect),
	command("search", "Find questions by prompt text", []string{
		"quizbank search --text <text> [--json]",
	}, runSearch),
	command("schema", "Show what the bank holds", []string{
		"quizbank schema [--json]",
	}, runSchema),
	command("import", "Load a bank file into the database", []string{
		"quizbank import --file <bank.yaml|bank.json>",
	}, runImport),
	command("export", "Write the stored bank as YAML", []string{
		"quizbank export [--topic t] [--subtopic s] [--out bank.yaml]",
	}, runExport),
	command("play", "Run a quiz session in the terminal", []string{
		"quizbank play [--file bank.yaml] [--topic t] [--subtopic s] [--count n]",
		"              [--strategy uniform|balanced] [--feedback immediate|deferred]",
		"              [--explain always|when-wrong|never] [--retries] [--seed n] [--metrics]",
		"              [--tui] [--no-color]",
	}, runPlay),
}

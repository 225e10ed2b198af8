// loam is a command-line tool for running sculpt scripts and inspecting
// density-field terrains without the server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

var version = "dev"

// errUsage marks argument errors; main prints usage for them.
var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		os.Exit(1)
	}
}

func run(command string, args []string, w io.Writer) error {
	switch command {
	case "run":
		return cmdRun(args, w)
	case "cube":
		return cmdCube(args, w)
	case "dump":
		return cmdDump(args, w)
	case "stats":
		return cmdStats(args, w)
	case "version":
		fmt.Fprintf(w, "loam %s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage(w)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `loam - sculptable density-field terrain tool

Usage:
  loam <command> [options]

Commands:
  run [-out dir] <script.loam>   Replay a script and print the mesh summary
  cube [-out dir] <pattern>      Mesh one unit cell with an 8-bit corner pattern
  dump [options]                 Generate a small terrain and print every stage
  stats <script.loam>...         Print field and mesh statistics as CSV
  version                        Print the version

Examples:
  loam run examples/mound.loam
  loam run -out ./snap -granularity 64 examples/arch.loam
  loam cube 0b00000101
  loam dump -layers 2 -step 0.5 -scale 2`)
}

// commonFlags are accepted by every command that builds a terrain.
type commonFlags struct {
	config  *string
	workers *int
	seed    *uint64
	verbose *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config:  fs.String("config", "", "Path to config file"),
		workers: fs.Int("workers", 0, "Compute workers (0 keeps the configured value)"),
		seed:    fs.Uint64("seed", 0, "Random seed (0 keeps the configured value)"),
		verbose: fs.Bool("v", false, "Debug logging to stderr"),
	}
}

func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

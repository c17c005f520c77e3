// Command pvl-translate reads a label under one dialect and rewrites it in
// another, e.g. loosely-formed ISIS cube labels into strict PDS3.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/planetarypy/pvl"
	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/util"
)

var version string

type cliOptions struct {
	From     string `long:"from" description:"Source dialect: pvl, odl, pds3, isis, omni" value-name:"dialect" default:"omni"`
	To       string `long:"to" description:"Target dialect: pvl, odl, pds3, isis" value-name:"dialect" default:"pds3"`
	Encoding string `long:"encoding" description:"Source byte encoding" value-name:"encoding" default:"latin1"`
	Strict   bool   `long:"strict" description:"Fail on the first grammar deviation rather than recovering"`
	Verbose  bool   `long:"verbose" description:"Pretty-print the parsed label tree to stderr before encoding"`
	Out      string `long:"out" description:"Write the translated label here instead of stdout" value-name:"path"`
	Help     bool   `long:"help" description:"Show this help"`
	Version  bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (cliOptions, []string) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] label_file"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return opts, rest
}

func dialectOf(name string) (grammar.Dialect, error) {
	switch name {
	case "pvl":
		return grammar.PVL, nil
	case "odl":
		return grammar.ODL, nil
	case "pds3":
		return grammar.PDS3, nil
	case "isis":
		return grammar.ISIS, nil
	case "omni":
		return grammar.Omni, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q", name)
	}
}

func main() {
	util.InitSlog()
	opts, args := parseOptions(os.Args[1:])
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "pvl-translate: exactly one label file is required")
		os.Exit(1)
	}

	from, err := dialectOf(opts.From)
	if err != nil {
		log.Fatalf("--from: %v", err)
	}
	to, err := dialectOf(opts.To)
	if err != nil {
		log.Fatalf("--to: %v", err)
	}

	slog.Info("pvl-translate: loading", "file", args[0], "from", from, "to", to)
	m, err := pvl.Load(args[0],
		pvl.WithDialect(from),
		pvl.WithEncoding(opts.Encoding),
		pvl.WithStrict(opts.Strict),
	)
	if err != nil {
		log.Fatalf("pvl-translate: %v", err)
	}

	if opts.Verbose {
		printer := pp.New()
		printer.SetColoringEnabled(isatty.IsTerminal(os.Stderr.Fd()))
		printer.Fprintln(colorable.NewColorableStderr(), m)
	}

	out := os.Stdout
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			log.Fatalf("pvl-translate: %v", err)
		}
		defer f.Close()
		out = f
	}

	if _, err := pvl.Dump(m, out, pvl.WithEncoderDialect(to)); err != nil {
		log.Fatalf("pvl-translate: %v", err)
	}
}

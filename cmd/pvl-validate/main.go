// Command pvl-validate checks that one or more label files parse cleanly
// under a given dialect, validating many files concurrently.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"github.com/planetarypy/pvl"
	"github.com/planetarypy/pvl/grammar"
	"github.com/planetarypy/pvl/util"
)

var version string

type cliOptions struct {
	Dialect     string `long:"dialect" description:"Dialect to validate against: pvl, odl, pds3, isis, omni" value-name:"dialect" default:"omni"`
	Encoding    string `long:"encoding" description:"Source byte encoding" value-name:"encoding" default:"latin1"`
	Strict      bool   `long:"strict" description:"Fail on the first grammar deviation rather than recovering"`
	Concurrency uint   `long:"concurrency" description:"Number of files to validate in parallel" value-name:"n" default:"4"`
	Config      string `long:"config" description:"YAML file overriding per-file dialect/encoding" value-name:"path"`
	Help        bool   `long:"help" description:"Show this help"`
	Version     bool   `long:"version" description:"Show this version"`
}

// fileConfig lets a --config YAML file pin a dialect/encoding per file,
// overriding the command-line default for files whose producer is known.
type fileConfig struct {
	Dialect  string `yaml:"dialect"`
	Encoding string `yaml:"encoding"`
}

func parseOptions(args []string) (cliOptions, []string) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] label_file..."
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
	case "omni", "":
		return grammar.Omni, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q", name)
	}
}

func loadConfig(path string) (map[string]fileConfig, error) {
	if path == "" {
		return nil, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg map[string]fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logOverrides reports the per-file config overrides at startup in sorted
// path order, so a run's debug log is reproducible across invocations
// regardless of the YAML map's iteration order.
func logOverrides(overrides map[string]fileConfig) {
	for path, fc := range util.CanonicalMapIter(overrides) {
		slog.Debug("pvl-validate: override", "file", path, "dialect", fc.Dialect, "encoding", fc.Encoding)
	}
}

func validateFile(ctx context.Context, path string, defaultDialect grammar.Dialect, defaultEncoding string, strict bool, overrides map[string]fileConfig) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dialect, encoding := defaultDialect, defaultEncoding
	if fc, ok := overrides[path]; ok {
		if fc.Dialect != "" {
			d, err := dialectOf(fc.Dialect)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			dialect = d
		}
		if fc.Encoding != "" {
			encoding = fc.Encoding
		}
	}

	if _, err := pvl.Load(path, pvl.WithDialect(dialect), pvl.WithEncoding(encoding), pvl.WithStrict(strict)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("pvl-validate: ok", "file", path, "dialect", dialect)
	return nil
}

func main() {
	util.InitSlog()
	opts, files := parseOptions(os.Args[1:])
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "pvl-validate: at least one label file is required")
		os.Exit(1)
	}

	defaultDialect, err := dialectOf(opts.Dialect)
	if err != nil {
		log.Fatalf("--dialect: %v", err)
	}
	overrides, err := loadConfig(opts.Config)
	if err != nil {
		log.Fatalf("--config: %v", err)
	}
	logOverrides(overrides)

	concurrency := int(opts.Concurrency)
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)
	for _, path := range files {
		path := path
		g.Go(func() error {
			return validateFile(ctx, path, defaultDialect, opts.Encoding, opts.Strict, overrides)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("pvl-validate: %d label(s) OK\n", len(files))
}

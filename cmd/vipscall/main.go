// Command vipscall lists, describes and calls libvips operations by name.
//
//	vipscall -list
//	vipscall -describe embed
//	vipscall black 4 3 bands=3
//	vipscall -out x -out y min "1,2;3,4"
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cshum/vipscall/internal/config"
	"github.com/cshum/vipscall/internal/logging"
	"github.com/cshum/vipscall/vips"
	"gopkg.in/yaml.v3"
)

func main() {
	configFlag := flag.String("config", "", "Path to a TOML configuration file")
	listFlag := flag.Bool("list", false, "List operations")
	allFlag := flag.Bool("all", false, "Include deprecated operations in -list")
	describeFlag := flag.String("describe", "", "Print the arguments of an operation as YAML")
	stringOptionsFlag := flag.String("string-options", "", "Options applied to the operation before its arguments, e.g. \"extend=white\"")
	var outputs stringList
	flag.Var(&outputs, "out", "Request an optional output (repeatable)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] operation [argument ...] [name=value ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Configure("vipscall", logging.ProfileRuntime, cfg.LogLevel)

	vips.Startup(&vips.Config{
		Library:     cfg.Library(),
		Logger:      &logger,
		ReportLeaks: cfg.ReportLeaks,
	})
	defer vips.Shutdown()

	run := func() error {
		switch {
		case *listFlag:
			return listOperations(os.Stdout, *allFlag || cfg.ShowDeprecated)
		case *describeFlag != "":
			return describeOperation(os.Stdout, *describeFlag)
		case flag.NArg() == 0:
			flag.Usage()
			return fmt.Errorf("no operation given")
		}
		return callOperation(os.Stdout, flag.Arg(0), flag.Args()[1:], outputs, *stringOptionsFlag)
	}
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("vipscall failed")
		vips.Shutdown()
		os.Exit(1)
	}
}

func listOperations(w io.Writer, includeDeprecated bool) error {
	_, err := fmt.Fprintln(w, strings.Join(vips.Operations(includeDeprecated), "\n"))
	return err
}

func describeOperation(w io.Writer, name string) error {
	info, err := vips.Describe(name)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(info); err != nil {
		return err
	}
	return enc.Close()
}

func callOperation(w io.Writer, name string, words, outputs []string, stringOptions string) error {
	info, err := vips.Describe(name)
	if err != nil {
		return err
	}
	args, options, err := buildCall(info, words, outputs)
	if err != nil {
		return err
	}
	if stringOptions != "" {
		options["string_options"] = stringOptions
	}
	result, err := vips.CallWithOptions(name, options, args...)
	if err != nil {
		return err
	}
	defer releaseValue(result)

	enc := yaml.NewEncoder(w)
	if err := enc.Encode(displayValue(result)); err != nil {
		return err
	}
	return enc.Close()
}

// Command introspect writes the operation catalog of the running libvips
// as a YAML document.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cshum/vipscall/internal/config"
	"github.com/cshum/vipscall/internal/logging"
	"github.com/cshum/vipscall/vips"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Catalog is the document written by introspect.
type Catalog struct {
	Version    string                `yaml:"version"`
	Operations []*vips.OperationInfo `yaml:"operations"`
}

func main() {
	configFlag := flag.String("config", "", "Path to a TOML configuration file")
	outFlag := flag.String("out", "", "Output file (stdout if empty)")
	allFlag := flag.Bool("all", false, "Include deprecated operations")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Configure("introspect", logging.ProfileRuntime, cfg.LogLevel)

	vips.Startup(&vips.Config{
		Library:     cfg.Library(),
		Logger:      &logger,
		ReportLeaks: cfg.ReportLeaks,
	})
	defer vips.Shutdown()

	catalog, err := buildCatalog(*allFlag || cfg.ShowDeprecated)
	if err != nil {
		logger.Fatal().Err(err).Msg("introspection failed")
	}

	var w io.Writer = os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create output file")
		}
		defer f.Close()
		w = f
	}
	if err := writeCatalog(w, catalog); err != nil {
		logger.Fatal().Err(err).Msg("failed to write catalog")
	}
	logger.Info().
		Int("operations", len(catalog.Operations)).
		Str("version", catalog.Version).
		Msg("catalog written")
}

// buildCatalog describes every operation concurrently, keeping list order.
func buildCatalog(includeDeprecated bool) (*Catalog, error) {
	names := vips.Operations(includeDeprecated)
	catalog := &Catalog{
		Version:    vips.Version,
		Operations: make([]*vips.OperationInfo, len(names)),
	}
	var g errgroup.Group
	g.SetLimit(8)
	for i, name := range names {
		g.Go(func() error {
			info, err := vips.Describe(name)
			if err != nil {
				return fmt.Errorf("describe %s: %w", name, err)
			}
			catalog.Operations[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func writeCatalog(w io.Writer, catalog *Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(catalog); err != nil {
		return err
	}
	return enc.Close()
}

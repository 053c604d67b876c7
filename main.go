package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"chronodb/pkg/inference"
	"chronodb/pkg/ingest"
	"chronodb/pkg/logging"
	"chronodb/pkg/schema"
)

type probeCmd struct {
	Files       []string `arg:"" name:"file" help:"Delimited text files to analyse." type:"existingfile"`
	ForceHeader bool     `help:"Treat the first line as a header regardless of statistics."`
	Delimiter   string   `short:"d" default:"," help:"Field delimiter."`
	Schema      string   `help:"JSON schema override file." type:"existingfile"`
	Parallel    int      `default:"4" help:"Number of files analysed concurrently."`
}

type cli struct {
	LogLevel string   `default:"INFO" enum:"DEBUG,INFO,WARN,ERROR" help:"Log verbosity."`
	Probe    probeCmd `cmd:"" help:"Infer column names and types from delimited text files."`
}

type probeResult struct {
	file      string
	hasHeader bool
	names     []string
	types     []inference.TypeAdapter
	lines     int64
	errors    int64
}

func (c *probeCmd) Run(root *cli) error {
	if err := logging.Init(logging.Config{Level: logging.LogLevel(root.LogLevel)}); err != nil {
		return err
	}

	overrides := schema.Empty()
	if c.Schema != "" {
		var err error
		if overrides, err = schema.Load(c.Schema); err != nil {
			return err
		}
	}

	delimiter := ','
	if c.Delimiter != "" {
		delimiter = []rune(c.Delimiter)[0]
	}

	results := make([]*probeResult, len(c.Files))
	var group errgroup.Group
	group.SetLimit(c.Parallel)

	for i, file := range c.Files {
		i, file := i, file
		group.Go(func() error {
			result, err := probeFile(file, delimiter, c.ForceHeader, overrides)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		r.print()
	}
	return nil
}

func probeFile(path string, delimiter rune, forceHeader bool, overrides *schema.Schema) (*probeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tableName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	analyser := inference.NewStructureAnalyser(inference.NewTypeManager(), overrides)
	analyser.Of(tableName, forceHeader, nil)

	source := ingest.NewCSVSource(delimiter)
	lines, errors, err := source.Stream(f, analyser)
	if err != nil {
		return nil, err
	}
	if err := analyser.EvaluateResults(lines, errors); err != nil {
		return nil, err
	}

	return &probeResult{
		file:      path,
		hasHeader: analyser.HasHeader(),
		names:     analyser.ColumnNames(),
		types:     analyser.ColumnTypes(),
		lines:     lines,
		errors:    errors,
	}, nil
}

func (r *probeResult) print() {
	fmt.Printf("%s: %d lines, %d errors, header=%v\n", r.file, r.lines, r.errors, r.hasHeader)
	for i, name := range r.names {
		if inference.IsNoop(r.types[i]) {
			fmt.Printf("  %-3d %-24s (ignored)\n", i, name)
			continue
		}
		fmt.Printf("  %-3d %-24s %s\n", i, name, r.types[i].Type())
	}
}

func main() {
	var root cli
	ctx := kong.Parse(&root,
		kong.Name("chronodb-probe"),
		kong.Description("Schema inference for delimited text ingestion."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&root))
}

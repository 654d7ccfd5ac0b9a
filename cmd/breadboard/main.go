// Copyright 2025 The Breadboard Authors.
// Licensed under the MIT license. See license text in the LICENSE file.

// Command breadboard evaluates circuit documents and netlists from the
// command line and opens an interactive playground.
//
// Run a saved circuit for three passes and show every node:
//
//	breadboard -f latch.yaml -passes 3
//
// Inspect the feedback loops of a netlist:
//
//	breadboard -n latch.bench -cycles
//
// Edit interactively, saving back to the same document:
//
//	breadboard -f latch.yaml -tui -o latch.yaml
//
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"

	bb "github.com/dwyrd/breadboard"
	"github.com/dwyrd/breadboard/board"
	"github.com/dwyrd/breadboard/circuitfile"
	"github.com/dwyrd/breadboard/internal/tui"
	"github.com/dwyrd/breadboard/netlist"
)

func main() {
	var (
		docPath   = flag.String("f", "", "circuit document to load (.yaml)")
		benchPath = flag.String("n", "", "netlist to load (.bench)")
		passes    = flag.Int("passes", 1, "evaluation passes to run")
		cycles    = flag.Bool("cycles", false, "list wires on feedback loops")
		runTUI    = flag.Bool("tui", false, "open the interactive playground")
		outPath   = flag.String("o", "", "write the circuit document here afterwards")
		export    = flag.String("export", "", "write the circuit as a netlist here afterwards")
		logLevel  = flag.String("log-level", "", "debug, info, warn or error (default warn, or set BREADBOARD_LOG_LEVEL)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level(*logLevel),
	}))

	b, err := load(logger, *docPath, *benchPath)
	if err != nil {
		logger.Error("load failed", "error", err)
		os.Exit(1)
	}
	if err := b.Err(); err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(1)
	}

	if *runTUI {
		if err := tui.Run(b, *outPath); err != nil {
			logger.Error("playground failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Loading already ran the first pass.
	for i := 1; i < *passes; i++ {
		if err := b.Evaluate(); err != nil {
			logger.Error("evaluation failed", "pass", i, "error", err)
			os.Exit(1)
		}
	}
	printResults(b)
	if *cycles {
		printCycles(b)
	}

	if *outPath != "" {
		name := strings.TrimSuffix(filepath.Base(*outPath), filepath.Ext(*outPath))
		if err := circuitfile.SaveFile(*outPath, circuitfile.FromBoard(name, b)); err != nil {
			logger.Error("save failed", "error", err)
			os.Exit(1)
		}
		logger.Info("document written", "path", *outPath)
	}
	if *export != "" {
		if err := exportNetlist(*export, b); err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		logger.Info("netlist written", "path", *export)
	}
}

func load(logger *slog.Logger, docPath, benchPath string) (*board.Board, error) {
	switch {
	case docPath != "" && benchPath != "":
		return nil, errors.New("-f and -n are mutually exclusive")
	case docPath != "":
		d, err := circuitfile.LoadFile(docPath)
		if err != nil {
			return nil, err
		}
		return d.Board(logger), nil
	case benchPath != "":
		nodes, conns, err := netlist.ParseFile(benchPath)
		if err != nil {
			return nil, err
		}
		return board.Restore(logger, nodes, conns, nil), nil
	}
	return board.New(logger), nil
}

func level(s string) slog.Level {
	if s == "" {
		s = os.Getenv("BREADBOARD_LOG_LEVEL")
	}
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func printResults(b *board.Board) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "KIND", "VALUE")
	for _, n := range b.Nodes() {
		t.Row(n.ID, string(n.Kind), bits(b.Outputs(n.ID)))
	}
	fmt.Println(t)
}

func printCycles(b *board.Board) {
	ids := b.CycleConnections()
	if len(ids) == 0 {
		fmt.Println("no feedback loops")
		return
	}
	byID := make(map[string]bb.Connection, len(b.Connections()))
	for _, c := range b.Connections() {
		byID[c.ID] = c
	}
	fmt.Printf("%d wire(s) on feedback loops:\n", len(ids))
	for _, id := range ids {
		c := byID[id]
		fmt.Printf("  %s: %s:%d -> %s:%d\n", id, c.From, c.FromPin, c.To, c.ToPin)
	}
}

func exportNetlist(path string, b *board.Board) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create netlist")
	}
	err = netlist.Write(f, b.Nodes(), b.Connections())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func bits(v []bool) string {
	if len(v) == 0 {
		return "-"
	}
	s := make([]byte, len(v))
	for i, bit := range v {
		if bit {
			s[i] = '1'
		} else {
			s[i] = '0'
		}
	}
	return string(s)
}

// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/siemens/edgedig/probe"
	"github.com/siemens/edgedig/ranges"
	"github.com/siemens/edgedig/report"
	"github.com/siemens/edgedig/scan"

	"github.com/gosuri/uilive"
	"github.com/projectdiscovery/gologger"
)

// ScanAndReport runs the scanning pipeline for the given domains, rendering
// live progress to the terminal while probes are in flight, and finally
// writes the ranked results to the configured CSV output (if any).
func ScanAndReport(ctx context.Context, domains []string) error {
	source, err := ranges.New(*provider)
	if err != nil {
		return err
	}

	// Create an empty (concurrency-safe) result board and immediately fire
	// off the rendering goroutine. The rendering will only stop after
	// scanning has finished. We then render a final update and end
	// rendering, signalling the end of our activities via renderingDone.
	board := report.NewBoard()
	trackingDone := make(chan struct{})
	renderingDone := make(chan struct{})

	go func() {
		// Dunno what uilive's background updating mode using Start() is good
		// for? It may trigger anytime with the rendering into the buffer not
		// yet complete, thus making the terminal output very flickery. So we
		// avoid Start() and instead trigger an explicit flush to the
		// terminal after having completed the rendering.
		term := uilive.New()
		renderer := newRenderer(term)
		renderer.Indentation = int(*indentation)
		defer func() {
			renderData(term, renderer, board)
			renderer.Stop()
			close(renderingDone)
		}()
		renderData(term, renderer, board)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderData(term, renderer, board)
			case <-trackingDone:
				return
			}
		}
	}()

	// Now lets put the required processing elements and their plumbing in
	// place: a Scanner running the range→candidates→probe→confirm→rank
	// pipeline per domain, with the board observing the verdict stream for
	// rendering.
	proberOpts := []probe.ProberOption{
		probe.WithTimeout(*probeTimeout),
		probe.WithPort(*probePort),
	}
	if *plainHTTP {
		proberOpts = append(proberOpts, probe.OverPlainHTTP())
	}
	if *icmpPrecheck {
		proberOpts = append(proberOpts, probe.WithICMPPrecheck())
	}
	options := []scan.Option{
		scan.WithConcurrency(int(*workerNumber)),
		scan.WithLimit(int(*candidateLimit)),
		scan.WithSeed(*seed),
		scan.WithTopN(int(*topN)),
		scan.WithProberOptions(proberOpts...),
		scan.WithObserver(board.Update),
	}
	if *runDeadline > 0 {
		options = append(options, scan.WithDeadline(*runDeadline))
	}
	if *resolverAddr != "" {
		options = append(options, scan.WithBaseline(*resolverAddr))
	}
	scanner := scan.New(source, options...)

	results := scanner.Scan(ctx, domains)
	close(trackingDone)
	<-renderingDone

	if *outputPath != "" {
		reports := make([]report.RankedReport, 0, len(results))
		for _, result := range results {
			reports = append(reports, result.Report)
		}
		f, err := os.Create(*outputPath)
		if err != nil {
			return fmt.Errorf("cannot write results: %w", err)
		}
		defer f.Close()
		if err := report.WriteCSV(f, reports); err != nil {
			return fmt.Errorf("cannot write results: %w", err)
		}
		gologger.Info().Msgf("ranked results written to %s", *outputPath)
	}

	fatal := 0
	for _, result := range results {
		if result.Err != nil {
			fatal++
		}
	}
	if fatal == len(results) {
		return fmt.Errorf("all %d domain scan(s) failed", fatal)
	}
	return nil
}

// renderData gets the current probe state and then renders (and flushes) it
// to the terminal.
func renderData(term *uilive.Writer, r *renderer, board *report.Board) {
	r.Render(board.Get())
	term.Flush()
}

// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/siemens/edgedig/ranges"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/spf13/cobra"
)

var (
	provider        *string
	workerNumber    *uint
	probeTimeout    *time.Duration
	candidateLimit  *uint
	topN            *uint
	seed            *int64
	runDeadline     *time.Duration
	probePort       *uint16
	plainHTTP       *bool
	icmpPrecheck    *bool
	resolverAddr    *string
	inputPath       *string
	outputPath      *string
	indentation     *uint
	spinnerInterval *time.Duration
	debug           *bool
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:     "edgedig [flags] domain [domain...]",
		Short:   "edgedig finds and ranks the edge addresses currently serving your domains",
		Version: "0.9",
		Args:    cobra.ArbitraryArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if _, ok := ranges.Providers[*provider]; !ok {
				return fmt.Errorf("unknown --provider %q", *provider)
			}
			if *workerNumber < 1 || *workerNumber > 128 {
				return fmt.Errorf("--workers out of range [1..128]")
			}
			if *indentation > 80 {
				return fmt.Errorf("--indent width out of range [0..80]")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if *debug {
				gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
				gologger.Debug().Msgf("debug logging enabled")
			}
			domains := args
			if *inputPath != "" {
				fromCSV, err := readDomainsCSV(*inputPath)
				if err != nil {
					return err
				}
				domains = append(domains, fromCSV...)
			}
			if len(domains) == 0 {
				return fmt.Errorf("nothing to scan: pass domains as arguments or via --input")
			}
			return ScanAndReport(context.Background(), domains)
		},
	}
	// Sets up the flags.
	provider = rootCmd.PersistentFlags().String(
		"provider", "cloudflare", "edge provider whose ranges to scan")
	workerNumber = rootCmd.PersistentFlags().Uint(
		"workers", 16, "number of concurrent probe workers")
	probeTimeout = rootCmd.PersistentFlags().Duration(
		"timeout", 5*time.Second, "per-probe timeout")
	candidateLimit = rootCmd.PersistentFlags().Uint(
		"limit", 256, "maximum number of candidate addresses per domain")
	topN = rootCmd.PersistentFlags().Uint(
		"top", 10, "number of ranked edge addresses to keep per domain")
	seed = rootCmd.PersistentFlags().Int64(
		"seed", 1, "candidate sampling seed, fixed seed means fixed sample")
	runDeadline = rootCmd.PersistentFlags().Duration(
		"deadline", 0, "overall per-domain deadline, 0 disables")
	probePort = rootCmd.PersistentFlags().Uint16(
		"port", 443, "port to probe on candidate addresses")
	plainHTTP = rootCmd.PersistentFlags().Bool(
		"plain", false, "probe over plain HTTP instead of TLS")
	icmpPrecheck = rootCmd.PersistentFlags().Bool(
		"icmp", false, "gate probes behind an ICMP echo precheck")
	resolverAddr = rootCmd.PersistentFlags().String(
		"resolver", "", "DNS resolver (host:port) for baseline resolution, empty disables")
	inputPath = rootCmd.PersistentFlags().String(
		"input", "", "CSV file to read domains from")
	outputPath = rootCmd.PersistentFlags().String(
		"output", "", "CSV file to write ranked results to")
	indentation = rootCmd.PersistentFlags().Uint(
		"indent", 3, "indentation width")
	spinnerInterval = rootCmd.PersistentFlags().Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	debug = rootCmd.PersistentFlags().Bool(
		"debug", false, "enable debugging output")
	return
}

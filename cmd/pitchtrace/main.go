// ABOUTME: Headless pitch contour tool
// ABOUTME: Prints the voiced segments and resting y-axis scale of an audio file
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pitchloop/pitchloop-go/internal/version"
	"github.com/pitchloop/pitchloop-go/pkg/audio/decode"
	"github.com/pitchloop/pitchloop-go/pkg/pitch"
)

var (
	minFreq = flag.Float64("min-freq", 75, "Lowest pitch to detect in Hz")
	maxFreq = flag.Float64("max-freq", 600, "Highest pitch to detect in Hz")
	hop     = flag.Duration("hop", 10*time.Millisecond, "Analysis frame step")
	verbose = flag.Bool("v", false, "Print every voiced frame")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer := pitch.NewAutocorrelation()
	analyzer.MinFreq = *minFreq
	analyzer.MaxFreq = *maxFreq
	analyzer.Hop = *hop

	fmt.Printf("=== %s pitchtrace ===\n", version.String())

	failed := false
	for _, path := range flag.Args() {
		if err := trace(ctx, analyzer, path); err != nil {
			log.Printf("%s: %v", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func trace(ctx context.Context, analyzer *pitch.Autocorrelation, path string) error {
	if !decode.Supported(path) {
		return decode.ErrUnsupported
	}

	tr, err := analyzer.Analyze(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", path)
	fmt.Printf("  frames: %d\n", tr.Len())

	count := 0
	for seg := range pitch.Segments(tr) {
		count++
		points := pitch.Polyline(tr, seg)
		lo, hi := points[0].Freq, points[0].Freq
		for _, p := range points {
			lo = min(lo, p.Freq)
			hi = max(hi, p.Freq)
		}
		fmt.Printf("  segment %d: %.2fs-%.2fs  %3.0f-%3.0f Hz  (%d frames)\n",
			count, points[0].Time, points[len(points)-1].Time, lo, hi, seg.Len())

		if *verbose {
			for _, p := range points {
				fmt.Printf("    %.3fs  %.1f Hz\n", p.Time, p.Freq)
			}
		}
	}

	if peak, ok := pitch.MaxVoiced(tr); ok {
		fmt.Printf("  peak: %.1f Hz\n", peak)
	} else {
		fmt.Printf("  no voiced frames\n")
	}
	fmt.Printf("  resting scale: %d Hz\n", pitch.RestingScale(tr))
	return nil
}

// Command fgc compiles a frame file and prints the resulting schedule.
//
//	fgc [-fg-nocull] [-v] [-parallel N] [-native] frame.toml
//
// The timeline, the lifetime and placement of every transient resource and
// the frame statistics are written to standard output. With -native the
// frame is also flushed through a no-op HAL device.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend/native"
	"github.com/gogpu/framegraph/framefile"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
)

func main() {
	var cfg framegraph.Config
	cfg.RegisterFlags(flag.CommandLine)
	var (
		verbose = flag.Bool("v", false, "log compiler decisions")
		workers = flag.Int("parallel", 1, "record passes on N goroutines (0 = GOMAXPROCS)")
		useNoop = flag.Bool("native", false, "size resources and flush through a no-op HAL device")
		frames  = flag.Int("frames", 1, "number of frames to compile")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: fgc [flags] frame.toml\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	opts := append(cfg.Options(), framegraph.WithParallelRecording(*workers))
	if err := run(os.Stdout, flag.Arg(0), *useNoop, max(*frames, 1), opts); err != nil {
		log.Fatalf("fgc: %v", err)
	}
}

func run(w io.Writer, path string, useNoop bool, frames int, opts []framegraph.Option) error {
	file, err := framefile.LoadFile(path)
	if err != nil {
		return err
	}
	if err := file.Validate(); err != nil {
		return err
	}

	var dev *native.Device
	var q framegraph.ResourceQuerier
	if useNoop {
		dev, err = openNoop()
		if err != nil {
			return err
		}
		defer dev.Destroy()
		q = dev
	}

	m := framegraph.NewManager(q, opts...)
	defer m.Close()

	for range frames {
		if err := runFrame(w, m, file, dev); err != nil {
			return fmt.Errorf("frame %d: %w", m.Frame(), err)
		}
	}
	return nil
}

func openNoop() (*native.Device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, errors.New("no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return native.New(open.Device, open.Queue)
}

func runFrame(w io.Writer, m *framegraph.Manager, file *framefile.File, dev *native.Device) error {
	final, err := file.Build(m.BeginFrame())
	if err != nil {
		return err
	}
	m.Compile(final)
	passes, err := m.Execute()
	if err != nil {
		return err
	}

	printFrame(w, m)

	if dev != nil {
		if err := dev.Prepare(m.Resources()); err != nil {
			return err
		}
		stats, err := dev.Flush(m.Resources(), passes)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "native: heap %d staging %d uploads %d (%d bytes)\n",
			dev.HeapSize(), dev.StagingSize(), stats.Uploads, stats.Bytes)
	}

	for _, e := range m.Errors().Errors() {
		fmt.Fprintln(w, "error:", e)
	}
	return nil
}

func printFrame(w io.Writer, m *framegraph.Manager) {
	passes := m.Graph().Passes()
	fmt.Fprintf(w, "frame %d: %d passes, %d culled\n", m.Frame(), len(passes), m.Compiler().Culled())

	fmt.Fprintln(w, "timeline:")
	for _, e := range m.Timeline().Events() {
		if e.Type == framegraph.EventFence {
			fmt.Fprintf(w, "  %s\n", e)
			continue
		}
		fmt.Fprintf(w, "  %-14s %s\n", e, passes[e.Pass].Name)
	}

	fmt.Fprintln(w, "resources:")
	for _, r := range m.Compiler().TransientResources() {
		lt, _ := m.Compiler().Lifetime(r)
		place, ok := m.Resources().Placement(r)
		if !ok {
			fmt.Fprintf(w, "  %-24s life %-8s unplaced\n", r, lt)
			continue
		}
		fmt.Fprintf(w, "  %-24s life %-8s at %d..%d\n", r, lt, place.AlignedStart, place.End)
	}

	fmt.Fprintln(w, m.Resources().Stats())
}

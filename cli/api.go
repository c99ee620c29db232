package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tracevis/tracevis/config"
	"github.com/tracevis/tracevis/counter"
	"github.com/tracevis/tracevis/filter"
	"github.com/tracevis/tracevis/generator"
	"github.com/tracevis/tracevis/output"
	"github.com/tracevis/tracevis/perf"
	"github.com/tracevis/tracevis/receiver"
	"github.com/tracevis/tracevis/trace"
	"github.com/tracevis/tracevis/tui"
)

const exitSentinel = "exit"

// runFilter applies the filter specs over the input file and streams the
// matching records to the output file through the producer/consumer hand-off.
func runFilter(cfg *config.Config, input string, specs []string) error {
	perf.ResetStages()
	timer, err := perf.Start(cfg.Engine.PerfDir)
	if err != nil {
		return err
	}
	defer timer.Stop()

	factory, err := filter.NewFactory(input)
	if err != nil {
		return err
	}
	defer factory.Join()

	for _, text := range specs {
		sp, err := filter.Parse(text)
		if err != nil {
			return err
		}
		if err := factory.Apply(sp); err != nil {
			return err
		}
	}

	writer, err := output.NewLogWriter(cfg.Filter.Output)
	if err != nil {
		return err
	}

	fmt.Println("Starting to write filtered logs...")
	factory.Start()
	for {
		rec, ok := factory.WaitLog()
		if !ok {
			break
		}
		if err := writer.Write(rec); err != nil {
			writer.Close()
			return err
		}
	}
	factory.Join()

	if err := writer.Close(); err != nil {
		return err
	}
	if err := factory.Reader().Err(); err != nil {
		return err
	}

	fmt.Printf("Total logs written: %d\n", writer.Count())
	fmt.Printf("Filtering complete. Results saved to %s\n", cfg.Filter.Output)
	return nil
}

// runCount counts the whole file in parallel, persists the histograms, and
// hands them to the TUI or the interactive prompt loop.
func runCount(cfg *config.Config, input, plotPath string, useTUI bool) error {
	fmt.Println("Starting counting process...")

	perf.ResetStages()
	timer, err := perf.Start(cfg.Engine.PerfDir)
	if err != nil {
		return err
	}

	cnt := &counter.Counter{Path: input, Workers: cfg.Engine.Workers}
	hist, err := cnt.Run()
	timer.Stop()
	if err != nil {
		return err
	}

	if err := output.WriteResults(cfg.Engine.ResultFile, hist); err != nil {
		return err
	}

	if plotPath != "" {
		if err := output.PlotQuadHeatmap(hist, plotPath); err != nil {
			return err
		}
	}

	if useTUI {
		return tui.NewApp(hist).Run()
	}
	return countPrompt(hist, os.Stdin)
}

// countPrompt is the interactive lookup loop: histogram names in, sections
// out, until the exit sentinel. An unknown name is a user-facing error.
func countPrompt(hist *counter.Histograms, in io.Reader) error {
	fmt.Println("Everything is ready!")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Println("What to display? Enter ThreadId / Unit / Area / Cluster / Quad:")
		fmt.Println("To exit - enter exit")

		if !scanner.Scan() {
			return scanner.Err()
		}
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		if name == exitSentinel {
			return nil
		}
		if err := hist.WriteSection(os.Stdout, name); err != nil {
			return err
		}
		fmt.Println()
	}
}

func runGenerate(path string, lines int, startTime float64, seed int64) error {
	started := time.Now()
	if err := generator.WriteFile(path, lines, startTime, seed); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("lines", lines).
		Dur("elapsed", time.Since(started)).Msg("log file generated")
	return nil
}

// runLive accepts lumberjack batches, appends well-formed trace lines to the
// configured log file, and reports sliding-window cluster stats.
func runLive(cfg *config.Config) error {
	rcv, err := receiver.New(cfg.Live.Listen, 5*time.Second)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(cfg.Live.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		rcv.Close()
		return err
	}
	defer out.Close()

	window := receiver.NewWindow(cfg.Live.WindowSeconds, cfg.Live.WindowMaxSize)

	log.Info().Str("listen", cfg.Live.Listen).Msg("waiting for a shipper to connect")
	if err := rcv.Accept(); err != nil {
		rcv.Close()
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info().Msg("received shutdown signal")
		rcv.Close()
	}()

	bw := bufio.NewWriter(out)
	for {
		entries, err := rcv.ReadBatch()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			if rcv.IsClosed() {
				break
			}
			time.Sleep(250 * time.Millisecond)
			continue
		}

		recs := make([]trace.Record, 0, len(entries))
		for _, entry := range entries {
			if _, err := bw.WriteString(entry.Line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
			recs = append(recs, entry.Rec)
		}
		if err := bw.Flush(); err != nil {
			return err
		}

		window.Update(recs, time.Now().Unix())
		log.Info().Int("batch", len(entries)).Int("window", window.Size()).
			Int("clusters", window.UniqueClusters()).Msg("batch ingested")
	}

	return bw.Flush()
}

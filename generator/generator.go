// Package generator writes synthetic trace logs in the engine's CSV grammar,
// for demos and for exercising the pipelines against large inputs.
package generator

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	pgzip "github.com/klauspost/pgzip"

	"github.com/tracevis/tracevis/errs"
)

var areas = []string{
	"Nfi", "cbu in mem0", "cbu in mem1", "cbu in lcip",
	"mcu gate 0", "mcu gate 1", "ecore req", "ecore rsp",
	"pcie", "host_if", "bmt", "d2d", "hbm",
}

var units = []string{
	"BMT", "pcie", "cbus inj", "cbus clt", "nfi inj",
	"nfi clt", "iraq", "eq", "hbm", "tcu", "iqr", "iqd",
	"bin", "lnb",
}

// WriteFile generates numLines records starting at startTime (fractional
// seconds), one second apart so the file stays sorted. A fixed seed keeps the
// output reproducible. Paths ending in .gz are compressed.
func WriteFile(path string, numLines int, startTime float64, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, errs.ErrFileCreate)
	}

	var sink io.Writer = f
	var gz *pgzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = pgzip.NewWriter(f)
		sink = gz
	}
	bw := bufio.NewWriterSize(sink, 256*1024)

	if err := Write(bw, numLines, startTime, seed); err != nil {
		f.Close()
		return err
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// Write emits the generated records to w.
func Write(w io.Writer, numLines int, startTime float64, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < numLines; i++ {
		entryTime := startTime + float64(i)

		chip := 0
		die := rng.Intn(2)
		quad := rng.Intn(4)
		row := rng.Intn(8)
		col := rng.Intn(8)

		area := areas[rng.Intn(len(areas))]
		unit := units[rng.Intn(len(units))]
		direction := "in"
		if rng.Intn(2) == 1 {
			direction = "out"
		}
		tid := rng.Intn(1000)

		_, err := fmt.Fprintf(w,
			"timestamp:%.6f,cluster_id:chip:%d;die:%d;quad:%d;row:%d;col:%d,area:%s,unit:%s,in/out:%s,tid:%d,packet/data:sample data %d\n",
			entryTime, chip, die, quad, row, col, area, unit, direction, tid, i)
		if err != nil {
			return err
		}
	}
	return nil
}

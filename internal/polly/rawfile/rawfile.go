// Package rawfile reads and writes the on-disk raw PollyXT container used by
// this pipeline: one gzipped JSON document per recording, holding the sample
// timestamp axis and the per-channel arrays. The conversion core never
// touches this encoding; it only consumes the in-memory polly.RawFile.
package rawfile

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/polly"
)

// document is the serialised shape of one raw recording. Times are Unix
// seconds (UTC); signal is [sample][channel][bin].
type document struct {
	Times       []int64       `json:"measurement_time"`
	Signal      [][][]float64 `json:"raw_signal"`
	Shots       [][]int32     `json:"measurement_shots"`
	CalAngle    []float64     `json:"depol_cal_angle"`
	ZenithAngle float64       `json:"zenith_angle"`
}

// Read loads one raw file. Files ending in .gz are decompressed
// transparently.
func Read(path string) (*polly.RawFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open raw file %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode raw file %s: %w", path, err)
	}

	raw := &polly.RawFile{
		Source:      filepath.Base(path),
		Times:       make([]time.Time, len(doc.Times)),
		Signal:      doc.Signal,
		Shots:       doc.Shots,
		CalAngle:    doc.CalAngle,
		ZenithAngle: doc.ZenithAngle,
	}
	for i, ts := range doc.Times {
		raw.Times[i] = time.Unix(ts, 0).UTC()
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return raw, nil
}

// ReadDir loads every raw file under path into a repository. Path may also
// name a single file. Raw files are recognised by a .json or .json.gz
// suffix.
func ReadDir(path string) (*polly.Repository, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", path, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz") {
				paths = append(paths, filepath.Join(path, name))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no raw files found in %s", path)
	}

	files := make([]*polly.RawFile, 0, len(paths))
	for _, p := range paths {
		raw, err := Read(p)
		if err != nil {
			return nil, err
		}
		files = append(files, raw)
	}
	return polly.NewRepository(files)
}

// Write stores one raw recording, gzipping when the path ends in .gz.
// Mainly used by tests and tooling that fabricate recordings.
func Write(path string, raw *polly.RawFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raw file: %w", err)
	}
	defer f.Close()

	doc := document{
		Times:       make([]int64, len(raw.Times)),
		Signal:      raw.Signal,
		Shots:       raw.Shots,
		CalAngle:    raw.CalAngle,
		ZenithAngle: raw.ZenithAngle,
	}
	for i, t := range raw.Times {
		doc.Times[i] = t.UTC().Unix()
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode raw file %s: %w", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("finish raw file %s: %w", path, err)
		}
	}
	return f.Close()
}

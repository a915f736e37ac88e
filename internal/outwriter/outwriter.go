// Package outwriter renders metrics documents.
package outwriter

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
)

// Options control how a document is rendered.
type Options struct {
	Format    schema.OutputMode
	Width     int // table width override, 0 detects the terminal
	UseColors bool
}

// OptionsFromConfig returns the rendering options of a run.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{Format: cfg.Output, Width: cfg.Width, UseColors: cfg.UseColors}
}

// entryRow is one rendered line: a package (or repository) and its metrics.
type entryRow struct {
	Key        string
	Repository string
	Metrics    *schema.RepositoryMetrics
}

// documentView is the format-independent shape shared by both document kinds.
type documentView struct {
	keyHeader string
	rows      []entryRow
	raw       any
}

func metricsView(doc *schema.MetricsDocument) documentView {
	v := documentView{keyHeader: "package_id", raw: doc}
	for id, entry := range doc.Packages {
		v.rows = append(v.rows, entryRow{Key: id, Repository: entry.Repository, Metrics: entry.Metrics})
	}
	sortRows(v.rows)
	return v
}

func repositoryView(doc *schema.RepositoryDocument) documentView {
	v := documentView{keyHeader: "repository", raw: doc}
	for uri, entry := range doc.Repositories {
		v.rows = append(v.rows, entryRow{Key: uri, Repository: uri, Metrics: entry.Metrics})
	}
	sortRows(v.rows)
	return v
}

func sortRows(rows []entryRow) {
	slices.SortFunc(rows, func(a, b entryRow) int { return cmp.Compare(a.Key, b.Key) })
}

// WriteMetricsDocument writes the per-package document of a metrics run.
func WriteMetricsDocument(w io.Writer, doc *schema.MetricsDocument, opts Options) error {
	return write(w, metricsView(doc), opts)
}

// WriteRepositoryDocument writes the per-repository document of an offline analysis.
func WriteRepositoryDocument(w io.Writer, doc *schema.RepositoryDocument, opts Options) error {
	return write(w, repositoryView(doc), opts)
}

// RenderMetricsDocument returns the rendered per-package document.
func RenderMetricsDocument(doc *schema.MetricsDocument, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteMetricsDocument(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderRepositoryDocument returns the rendered per-repository document.
func RenderRepositoryDocument(doc *schema.RepositoryDocument, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRepositoryDocument(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(w io.Writer, v documentView, opts Options) error {
	switch opts.Format {
	case schema.JSONOut, "":
		if err := writeJSON(w, v.raw); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeYAML(w, v.raw); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSV(w, v); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.TableOut:
		if err := writeTable(w, v, opts); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	return nil
}

// ContentType returns the MIME type of a rendered document.
func ContentType(format schema.OutputMode) string {
	switch format {
	case schema.YAMLOut:
		return "application/yaml"
	case schema.CSVOut:
		return "text/csv"
	case schema.TableOut:
		return "text/plain"
	default:
		return "application/json"
	}
}

// WriteOutput writes rendered data to outputFile, or to stdout when it is empty.
func WriteOutput(outputFile string, data []byte, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if _, err := file.Write(data); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// Package main benchmarks the offline analysis of the grimoirelab-metrics CLI.
// It generates event dumps of increasing size, runs the analyze command on
// each one several times, treating the first successful run as cold and
// averaging the rest as warm, and writes the timings to a CSV file.
//
// Prerequisites:
// - grimoirelab-metrics binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the generated event dumps are written
package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const binary = "grimoirelab-metrics"

// BenchmarkResult holds the timings of one dump and output format.
type BenchmarkResult struct {
	Dataset  string
	Format   string
	Commits  int
	ColdTime string
	WarmTime string
}

// Dataset describes a generated event dump.
type Dataset struct {
	Name         string
	Repositories int
	Commits      int // per repository
	Authors      int // per repository
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Runs     int
	Formats  []string
	Datasets []Dataset
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir: os.Args[1],
		Timeout: 5 * time.Minute,
		Runs:    4,
		Formats: []string{"json", "table"},
		Datasets: []Dataset{
			{Name: "small", Repositories: 5, Commits: 200, Authors: 10},
			{Name: "medium", Repositories: 20, Commits: 2000, Authors: 60},
			{Name: "large", Repositories: 50, Commits: 10000, Authors: 400},
		},
	}

	if _, err := exec.LookPath(binary); err != nil {
		fmt.Printf("Prerequisites check failed: %s binary not found in PATH\n", binary)
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks generates every dataset and times the analyze command on it.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d runs\n",
		len(config.Datasets), config.Timeout, config.Runs)

	for _, ds := range config.Datasets {
		path := filepath.Join(config.WorkDir, ds.Name+".ndjson")
		fmt.Printf("Generating %s (%d commits)\n", path, ds.Repositories*ds.Commits)
		if err := generateEvents(path, ds); err != nil {
			return nil, fmt.Errorf("generating %s: %w", ds.Name, err)
		}

		for _, format := range config.Formats {
			fmt.Printf("Running analyze on %s (%s)\n", ds.Name, format)
			cold, warm := runBenchmark(config, path, format)

			coldTime, warmAvg := "TIMEOUT", "TIMEOUT"
			if cold > 0 {
				coldTime = fmt.Sprintf("%.3fs", cold)
			}
			if len(warm) > 0 {
				var sum float64
				for _, t := range warm {
					sum += t
				}
				warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
			}
			fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTime, warmAvg)

			results = append(results, BenchmarkResult{
				Dataset:  ds.Name,
				Format:   format,
				Commits:  ds.Repositories * ds.Commits,
				ColdTime: coldTime,
				WarmTime: warmAvg,
			})
		}
	}

	return results, nil
}

var extensions = []string{".go", ".py", ".c", ".md", ".png", ".yaml", ".rs", ".txt"}

// generateEvents writes a newline-delimited dump of commit events.
func generateEvents(path string, ds Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	rng := rand.New(rand.NewPCG(uint64(ds.Repositories), uint64(ds.Commits)))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	for r := range ds.Repositories {
		source := fmt.Sprintf("https://github.com/bench/repo-%03d", r)
		for c := range ds.Commits {
			// Skewed authorship so pony and elephant factors stay small
			author := int(float64(ds.Authors) * rng.Float64() * rng.Float64())
			files := make([]map[string]string, 1+rng.IntN(5))
			for i := range files {
				files[i] = map[string]string{
					"file":    fmt.Sprintf("src/mod%d/file%d%s", rng.IntN(10), i, extensions[rng.IntN(len(extensions))]),
					"added":   fmt.Sprint(rng.IntN(200)),
					"removed": fmt.Sprint(rng.IntN(50)),
				}
			}
			event := map[string]any{
				"id":     fmt.Sprintf("%s-%d", source, c),
				"type":   "org.grimoirelab.events.git.commit",
				"source": source,
				"time":   start + int64(c)*3600,
				"data": map[string]any{
					"Author":  fmt.Sprintf("Dev %d <dev%d@company%d.example.com>", author, author, author%7),
					"message": strings.Repeat("x", 20+rng.IntN(200)),
					"files":   files,
				},
			}
			if err := enc.Encode(event); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// runBenchmark executes the analyze command several times and returns the
// cold time and the warm times in seconds.
func runBenchmark(config BenchmarkConfig, path, format string) (coldTime float64, warmTimes []float64) {
	args := []string{"analyze", path, "--format", format, "--from-date", "2025-01-01", "--color", "no"}

	var times []float64
	for range config.Runs {
		start := time.Now()

		cmd := exec.Command(binary, args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, format) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output looks like a complete document
func isSuccess(output []byte, format string) bool {
	if format == "table" {
		return strings.Contains(string(output), "Showing ")
	}
	return strings.Contains(string(output), `"repositories"`)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/grimoirelab_metrics_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "format", "commits", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{result.Dataset, result.Format, fmt.Sprint(result.Commits), result.ColdTime, result.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s %-6s (%7d commits): Cold: %s, Warm: %s\n",
			result.Dataset, result.Format, result.Commits, result.ColdTime, result.WarmTime)
	}
}

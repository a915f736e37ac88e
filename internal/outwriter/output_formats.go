package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

// metricHeaders are the CSV columns of a metrics record.
var metricHeaders = []string{
	"total_commits",
	"total_contributors",
	"pony_factor",
	"elephant_factor",
	"commits_week_mean",
	"file_types_code",
	"file_types_binary",
	"file_types_other",
	"commit_size_added_lines",
	"commit_size_removed_lines",
	"message_size_total",
	"message_size_mean",
	"message_size_median",
	"developer_categories_core",
	"developer_categories_regular",
	"developer_categories_casual",
}

// writeJSON encodes data with a four space indent.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// writeCSV writes one row per entry. Metric columns are empty when the
// entry has no metrics.
func writeCSV(w io.Writer, v documentView) error {
	csvWriter := csv.NewWriter(w)

	header := append([]string{v.keyHeader, "repository", "status"}, metricHeaders...)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range v.rows {
		record := []string{r.Key, r.Repository, contract.GetPlainLabel(r.Repository != "", r.Metrics != nil)}
		if m := r.Metrics; m != nil {
			record = append(record,
				strconv.Itoa(m.TotalCommits),
				strconv.Itoa(m.TotalContributors),
				strconv.Itoa(m.PonyFactor),
				strconv.Itoa(m.ElephantFactor),
				formatFloat(m.CommitsWeekMean),
				strconv.Itoa(m.FileTypesCode),
				strconv.Itoa(m.FileTypesBinary),
				strconv.Itoa(m.FileTypesOther),
				strconv.Itoa(m.CommitSizeAddedLines),
				strconv.Itoa(m.CommitSizeRemovedLines),
				strconv.Itoa(m.MessageSizeTotal),
				formatFloat(m.MessageSizeMean),
				strconv.Itoa(m.MessageSizeMedian),
				strconv.Itoa(m.DeveloperCategoriesCore),
				strconv.Itoa(m.DeveloperCategoriesRegular),
				strconv.Itoa(m.DeveloperCategoriesCasual),
			)
		} else {
			record = append(record, make([]string, len(metricHeaders))...)
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeTable writes a human-readable summary table followed by totals.
func writeTable(w io.Writer, v documentView, opts Options) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"ID", "Repository", "Status", "Commits", "Contrib", "Pony", "Elephant", "Commits/Week", "Core", "Regular", "Casual"}
	if v.keyHeader == "repository" {
		headers = headers[1:]
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainLabel
	if opts.UseColors {
		label = contract.GetColorLabel
	}
	repoWidth := GetMaxTableRepositoryWidth(opts.Width, v.keyHeader != "repository")

	counts := map[string]int{}
	var data [][]string
	for _, r := range v.rows {
		hasRepository, hasMetrics := r.Repository != "", r.Metrics != nil
		counts[contract.GetPlainLabel(hasRepository, hasMetrics)]++

		row := []string{
			contract.TruncateText(r.Repository, repoWidth),
			label(hasRepository, hasMetrics),
		}
		if v.keyHeader != "repository" {
			row = append([]string{r.Key}, row...)
		}
		if m := r.Metrics; m != nil {
			row = append(row,
				strconv.Itoa(m.TotalCommits),
				strconv.Itoa(m.TotalContributors),
				strconv.Itoa(m.PonyFactor),
				strconv.Itoa(m.ElephantFactor),
				strconv.FormatFloat(m.CommitsWeekMean, 'f', 2, 64),
				strconv.Itoa(m.DeveloperCategoriesCore),
				strconv.Itoa(m.DeveloperCategoriesRegular),
				strconv.Itoa(m.DeveloperCategoriesCasual),
			)
		} else {
			row = append(row, "-", "-", "-", "-", "-", "-", "-", "-")
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Showing %d entries (%s: %d, %s: %d, %s: %d)\n",
		len(v.rows),
		contract.ReadyValue, counts[contract.ReadyValue],
		contract.TimeoutValue, counts[contract.TimeoutValue],
		contract.UnknownValue, counts[contract.UnknownValue])
	return err
}

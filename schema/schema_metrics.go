package schema

// RepositoryMetrics is the flat metrics record of a single repository.
// Keys of grouped metrics carry the group as prefix (file_types_code, ...).
type RepositoryMetrics struct {
	TotalCommits      int     `json:"total_commits" yaml:"total_commits"`
	TotalContributors int     `json:"total_contributors" yaml:"total_contributors"`
	PonyFactor        int     `json:"pony_factor" yaml:"pony_factor"`
	ElephantFactor    int     `json:"elephant_factor" yaml:"elephant_factor"`
	CommitsWeekMean   float64 `json:"commits_week_mean" yaml:"commits_week_mean"`

	FileTypesCode   int `json:"file_types_code" yaml:"file_types_code"`
	FileTypesBinary int `json:"file_types_binary" yaml:"file_types_binary"`
	FileTypesOther  int `json:"file_types_other" yaml:"file_types_other"`

	CommitSizeAddedLines   int `json:"commit_size_added_lines" yaml:"commit_size_added_lines"`
	CommitSizeRemovedLines int `json:"commit_size_removed_lines" yaml:"commit_size_removed_lines"`

	MessageSizeTotal  int     `json:"message_size_total" yaml:"message_size_total"`
	MessageSizeMean   float64 `json:"message_size_mean" yaml:"message_size_mean"`
	MessageSizeMedian int     `json:"message_size_median" yaml:"message_size_median"`

	DeveloperCategoriesCore    int `json:"developer_categories_core" yaml:"developer_categories_core"`
	DeveloperCategoriesRegular int `json:"developer_categories_regular" yaml:"developer_categories_regular"`
	DeveloperCategoriesCasual  int `json:"developer_categories_casual" yaml:"developer_categories_casual"`
}

// FileTypeCounts holds the number of changed files per bucket.
type FileTypeCounts struct {
	Code   int `json:"code"`
	Binary int `json:"binary"`
	Other  int `json:"other"`
}

// CommitSize holds the line totals of all processed commits.
type CommitSize struct {
	AddedLines   int `json:"added_lines"`
	RemovedLines int `json:"removed_lines"`
}

// MessageSize summarizes commit message lengths.
type MessageSize struct {
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Median int     `json:"median"`
}

// DeveloperCategories splits contributors into core, regular and casual.
type DeveloperCategories struct {
	Core    int `json:"core"`
	Regular int `json:"regular"`
	Casual  int `json:"casual"`
}

// MetricsEntry wraps the metrics of one repository. Metrics is null when the
// repository never became ready or no git repository was found.
type MetricsEntry struct {
	Metrics    *RepositoryMetrics `json:"metrics" yaml:"metrics"`
	Repository string             `json:"repository,omitempty" yaml:"repository,omitempty"`
}

// MetricsDocument is the output of a metrics run keyed by SPDX package id.
type MetricsDocument struct {
	Packages map[string]MetricsEntry `json:"packages" yaml:"packages"`
}

// RepositoryDocument is the output of an offline analysis keyed by repository URI.
type RepositoryDocument struct {
	Repositories map[string]MetricsEntry `json:"repositories" yaml:"repositories"`
}

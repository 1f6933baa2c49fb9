// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lawbook/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// QueryParam is one repeated catalog query parameter, for example
// {Key: "xlwj", Values: ["02", "03"]}.
type QueryParam struct {
	Key    string   `json:"key" yaml:"key" mapstructure:"key"`
	Values []string `json:"values" yaml:"values" mapstructure:"values"`
}

// CatalogConfig holds settings for the remote catalog client.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the catalog API root. List and detail endpoints are
	// resolved relative to it.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// FileBaseURL is prepended to relative file paths in document details.
	FileBaseURL string `json:"file_base_url" yaml:"file_base_url" mapstructure:"file_base_url"`

	// SearchType is passed as the searchType parameter (e.g. "1,3").
	SearchType string `json:"search_type" yaml:"search_type" mapstructure:"search_type"`

	// PageSize is the number of summaries requested per page (default 10).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// Params are extra filters sent with every list request.
	Params []QueryParam `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

// CategoryRule maps document titles to an output folder. Rules are
// evaluated in order and the first match wins.
type CategoryRule struct {
	// Category is the relative folder (e.g. "民法典" or "刑法/司法解释").
	Category string `json:"category" yaml:"category" mapstructure:"category"`

	// Titles lists the titles that belong to Category. A document matches
	// when its stripped title is contained in any entry.
	Titles []string `json:"titles" yaml:"titles" mapstructure:"titles"`
}

// LineRule is a configured structural line pattern.
type LineRule struct {
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`

	// Level is the Markdown heading depth; 0 renders the line inline.
	Level int `json:"level" yaml:"level" mapstructure:"level"`
}

// PipelineConfig holds settings for the extraction pipeline.
type PipelineConfig struct {
	// Formats is the parser preference order, most preferred first.
	// Files of any other format are ignored.
	Formats []FileFormat `json:"formats" yaml:"formats" mapstructure:"formats"`

	// Categories are the output folder rules.
	Categories []CategoryRule `json:"categories,omitempty" yaml:"categories,omitempty" mapstructure:"categories"`

	// CategoriesFile optionally points to a YAML file holding the rules.
	CategoriesFile string `json:"categories_file,omitempty" yaml:"categories_file,omitempty" mapstructure:"categories_file"`

	// LineRules overrides the built-in structural line patterns.
	LineRules []LineRule `json:"line_rules,omitempty" yaml:"line_rules,omitempty" mapstructure:"line_rules"`

	// TitlePrefix is stripped from titles before filtering and naming.
	TitlePrefix string `json:"title_prefix" yaml:"title_prefix" mapstructure:"title_prefix"`

	// SpecTitle restricts a run to the first document whose title
	// contains it. Empty disables the restriction.
	SpecTitle string `json:"spec_title,omitempty" yaml:"spec_title,omitempty" mapstructure:"spec_title"`

	// PageFrom and PageTo bound the catalog pages scanned (inclusive).
	PageFrom int `json:"page_from" yaml:"page_from" mapstructure:"page_from"`
	PageTo   int `json:"page_to" yaml:"page_to" mapstructure:"page_to"`

	// OutputDir is the root the sink writes under.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// DocImage is the container image used for legacy .doc files.
	// Empty disables container conversion.
	DocImage string `json:"doc_image,omitempty" yaml:"doc_image,omitempty" mapstructure:"doc_image"`
}

// MatchMode selects how the duplicate suppressor compares files.
type MatchMode string

const (
	// MatchName treats files with the same name as duplicates.
	MatchName MatchMode = "name"
	// MatchContent additionally requires identical content.
	MatchContent MatchMode = "content"
)

// DedupConfig holds settings for the duplicate suppression pass.
type DedupConfig struct {
	// OutputDir is the sink's output root; duplicates are removed from here.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// ReferenceDir is the larger tree searched for existing copies.
	ReferenceDir string `json:"reference_dir" yaml:"reference_dir" mapstructure:"reference_dir"`

	// ExcludeSegment skips any reference directory with this name
	// (the sink's own container, e.g. "scripts").
	ExcludeSegment string `json:"exclude_segment" yaml:"exclude_segment" mapstructure:"exclude_segment"`

	// Extension selects the output files checked (default ".md").
	Extension string `json:"extension" yaml:"extension" mapstructure:"extension"`

	Match  MatchMode `json:"match" yaml:"match" mapstructure:"match"`
	DryRun bool      `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`
}

// LedgerConfig holds settings for the run ledger database.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all stage configurations.
type Config struct {
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Dedup    DedupConfig    `json:"dedup" yaml:"dedup" mapstructure:"dedup"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FileFormat is the source format tag the catalog attaches to a document file.
type FileFormat string

const (
	FormatHTML FileFormat = "HTML"
	FormatWord FileFormat = "WORD"
	FormatPDF  FileFormat = "PDF"
)

// DocumentSummary is the minimal catalog record returned by a list page.
type DocumentSummary struct {
	// ID is the catalog identifier used to fetch the document detail.
	ID string `json:"id" yaml:"id"`

	// Title is the full document title as published
	// (e.g. "中华人民共和国民法典").
	Title string `json:"title" yaml:"title"`

	// Publish is the publish date. Catalog values carry a time component
	// ("2020-05-28 00:00:00"); the pipeline keeps only the date part.
	Publish string `json:"publish,omitempty" yaml:"publish,omitempty"`

	// Office is the issuing body, when the catalog provides it.
	Office string `json:"office,omitempty" yaml:"office,omitempty"`
}

// SourceFile references one downloadable rendition of a document.
// A document may list several competing files of different formats.
type SourceFile struct {
	Type FileFormat `json:"type" yaml:"type"`

	// Path is the catalog-relative file path.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// URL is the absolute download location. Catalog clients fill it from
	// Path when the catalog only returns relative paths.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// DocumentDetail is the full catalog record for a single document.
type DocumentDetail struct {
	ID      string       `json:"id" yaml:"id"`
	Title   string       `json:"title" yaml:"title"`
	Office  string       `json:"office,omitempty" yaml:"office,omitempty"`
	Publish string       `json:"publish,omitempty" yaml:"publish,omitempty"`
	Body    []SourceFile `json:"body" yaml:"body"`
}

// ParsedContent is what a format parser pulls out of one source file.
type ParsedContent struct {
	Format      FileFormat
	Description string
	Lines       []string
}

// Metadata describes where a canonical document came from.
type Metadata struct {
	ID      string     `json:"id,omitempty" yaml:"id,omitempty"`
	Publish string     `json:"publish,omitempty" yaml:"publish,omitempty"`
	Office  string     `json:"office,omitempty" yaml:"office,omitempty"`
	Format  FileFormat `json:"format,omitempty" yaml:"format,omitempty"`
}

// Section is one structural unit of a document body. Heading is empty for
// free text that precedes the first structural line.
type Section struct {
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`

	// Level is the Markdown heading depth for Heading. Zero means the
	// heading is an inline unit (an article) rendered as body text.
	Level int `json:"level" yaml:"level"`

	Body string `json:"body,omitempty" yaml:"body,omitempty"`
}

// CanonicalDocument is the normalized form written to the output tree.
// A valid document has a non-empty Title and at least one Section.
type CanonicalDocument struct {
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Meta        Metadata  `json:"meta" yaml:"meta"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// OutputRecord pairs a canonical document with its resolved relative path.
type OutputRecord struct {
	Path     string
	Document *CanonicalDocument
}

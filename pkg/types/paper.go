// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paragraph is one entry of a paper's abstract or body_text array. Only
// Text is consumed; citation and reference spans are ignored.
type Paragraph struct {
	Text    string `json:"text"`
	Section string `json:"section,omitempty"`
}

// Paper holds the parts of a CORD-19 paper record used for answer
// selection. bib_entries, ref_entries, back_matter, and metadata are
// not decoded.
type Paper struct {
	// ID is the paper_id field of the record.
	ID string `json:"paper_id"`

	// Abstract lists the abstract paragraphs in document order.
	Abstract []Paragraph `json:"abstract"`

	// BodyText lists the body paragraphs in document order.
	BodyText []Paragraph `json:"body_text"`
}

// Manifest lists the paper files discovered for one source type.
type Manifest struct {
	Paper []string `json:"paper"`
}

// ResultRecord is the per-paper answer file. The JSON field names mirror
// the paper layout: "abstract" carries the task's general question and
// "body_text" the selected answers.
type ResultRecord struct {
	PaperID  string   `json:"paper_id" yaml:"paper_id"`
	Task     int      `json:"task" yaml:"task"`
	Question string   `json:"abstract" yaml:"question"`
	Answers  []string `json:"body_text" yaml:"answers"`
}

// Package domain holds the canonical record shape produced by every spider.
package domain

import "strings"

// Record is the canonical shape every source adapter normalizes into.
// (SourceID, ExternalRef) is the deduplication key owned by storage.
type Record struct {
	SourceID       string `json:"source_id"`
	ExternalRef    string `json:"external_ref"`
	Title          string `json:"title"`
	ResolutionType string `json:"resolution_type"`
	IssuingBody    string `json:"issuing_body"`
	Jurisdiction   string `json:"jurisdiction"`
	DateIssued     string `json:"date_issued"`
	DatePublished  string `json:"date_published"`
	OriginalURL    string `json:"original_url"`
	// FullText is filled by the downstream text-extraction service.
	FullText string `json:"full_text"`

	ECLI             string `json:"ecli"`
	CaseNumber       string `json:"case_number"`
	CelexNumber      string `json:"celex_number"`
	StatusLegal      string `json:"status_legal"`
	LanguageOriginal string `json:"language_original"`
	ImportanceLevel  int    `json:"importance_level"`
	CEDHArticles     string `json:"cedh_articles"`
	AdvocateGeneral  string `json:"advocate_general"`
	ProcedureType    string `json:"procedure_type"`
}

// Valid reports whether the record carries both mandatory fields.
func (r *Record) Valid() bool {
	return strings.TrimSpace(r.ExternalRef) != "" && strings.TrimSpace(r.Title) != ""
}

// DedupKey returns the storage key for the record.
func (r *Record) DedupKey() string {
	return r.SourceID + ":" + r.ExternalRef
}

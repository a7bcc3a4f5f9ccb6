package storage

func keyword() map[string]any { return map[string]any{"type": "keyword"} }

func text() map[string]any { return map[string]any{"type": "text"} }

// date fields hold YYYY-MM-DD or nothing.
func date() map[string]any {
	return map[string]any{"type": "date", "format": "strict_date", "ignore_malformed": true}
}

// IndexMapping returns the settings and mappings of the records index.
func IndexMapping() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]any{
			"dynamic": "strict",
			"properties": map[string]any{
				"source_id":         keyword(),
				"external_ref":      keyword(),
				"title":             text(),
				"resolution_type":   keyword(),
				"issuing_body":      keyword(),
				"jurisdiction":      keyword(),
				"date_issued":       date(),
				"date_published":    date(),
				"original_url":      keyword(),
				"full_text":         text(),
				"ecli":              keyword(),
				"case_number":       keyword(),
				"celex_number":      keyword(),
				"status_legal":      keyword(),
				"language_original": keyword(),
				"importance_level":  map[string]any{"type": "integer"},
				"cedh_articles":     keyword(),
				"advocate_general":  keyword(),
				"procedure_type":    keyword(),
				"scope":             keyword(),
				"harvested_at":      map[string]any{"type": "date"},
			},
		},
	}
}

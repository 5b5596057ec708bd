package domain

// SearchResult is the generic search-result shape consumed by the prompting
// layer: the snippet text plus an optional display name and source link.
// Empty Name or Link means the stored record carried no reference.
type SearchResult struct {
	Value string
	Name  string
	Link  string
}

// SnippetText extracts the text used for relevance purposes.
func SnippetText[K comparable](snippet TextSnippet[K]) string {
	return snippet.Text
}

// MapSearchResult maps a stored snippet into the generic search-result shape.
// It never fails for a valid snippet; absent references map to absent fields.
func MapSearchResult[K comparable](snippet TextSnippet[K]) SearchResult {
	return SearchResult{
		Value: snippet.Text,
		Name:  snippet.ReferenceDescription,
		Link:  snippet.ReferenceLink,
	}
}

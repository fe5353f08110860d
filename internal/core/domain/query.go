package domain

// Citation identifies where a retrieved passage came from.
type Citation struct {
	Source string `json:"source"`
	Page   string `json:"page"`
}

// QueryResult is an answer plus the citations of the chunks that grounded it.
type QueryResult struct {
	Answer  string     `json:"answer"`
	Sources []Citation `json:"sources"`
}

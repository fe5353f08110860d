package domain

// FileFailure records why a single file could not be ingested.
type FileFailure struct {
	File string `json:"file"`
	Err  string `json:"error"`
}

// IngestionReport summarises one ingestion batch.
type IngestionReport struct {
	// Succeeded lists files whose chunks reached the index.
	Succeeded []string `json:"succeeded"`

	// Skipped lists files rejected because the ledger already contains them.
	Skipped []string `json:"skipped"`

	// Failed lists files that could not be loaded or indexed.
	Failed []FileFailure `json:"failed"`

	// Chunks is the total number of chunks written to the index.
	Chunks int `json:"chunks"`

	// ChunksPerFile maps each succeeded file to its chunk count.
	ChunksPerFile map[string]int `json:"chunks_per_file"`
}

// NewIngestionReport returns an empty report.
func NewIngestionReport() *IngestionReport {
	return &IngestionReport{ChunksPerFile: make(map[string]int)}
}

// HasFailures reports whether any file failed.
func (r *IngestionReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// UploadResult is the outcome of a single uploaded file.
type UploadResult struct {
	File string

	// Chunks is the number of chunks indexed; zero when AlreadyProcessed.
	Chunks int

	// AlreadyProcessed is true when the ledger already held the file.
	AlreadyProcessed bool
}

// Package ledger provides the file-backed processed-files ledger.
//
// The ledger is a plain text file with one filename per line. It records
// every file whose chunks have reached the vector index, so restarts and
// repeated uploads never index the same file twice.
package ledger

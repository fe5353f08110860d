// Package pdf extracts per-page text from PDF files.
//
// Two loaders are available: one shells out to poppler's pdftotext, the
// other reads the file with a pure Go parser. New picks between them.
package pdf

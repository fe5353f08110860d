package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestIngest_NewFilesCreateIndexAndLedger(t *testing.T) {
	f := newFixture(nil, "a.pdf", "b.pdf")
	f.loader.pages["kb/a.pdf"] = []string{"page one", "page two"}
	ctx := context.Background()

	report, err := f.ingest.Ingest(ctx, []string{"a.pdf", "b.pdf"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, report.Succeeded)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 2, report.ChunksPerFile["a.pdf"])
	assert.Equal(t, 1, report.ChunksPerFile["b.pdf"])

	assert.True(t, f.index.Ready())
	assert.Equal(t, 1, f.store.createCalls)
	assert.Equal(t, 0, f.store.appendCalls)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, f.ledger.names())
}

func TestIngest_SecondBatchAppends(t *testing.T) {
	f := newFixture(nil, "a.pdf", "b.pdf")
	ctx := context.Background()

	_, err := f.ingest.Ingest(ctx, []string{"a.pdf"})
	require.NoError(t, err)
	_, err = f.ingest.Ingest(ctx, []string{"b.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.createCalls)
	assert.Equal(t, 1, f.store.appendCalls)
	count, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngest_AlreadyProcessedDoesNoWork(t *testing.T) {
	f := newFixture([]string{"report.pdf"}, "report.pdf")
	ctx := context.Background()

	report, err := f.ingest.Ingest(ctx, []string{"report.pdf"})

	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, report.Skipped)
	assert.Empty(t, report.Succeeded)
	assert.Equal(t, 0, f.loader.callCount())
	assert.Equal(t, 0, f.splitter.callCount())
	assert.Equal(t, 0, f.store.createCalls+f.store.appendCalls)
	assert.Equal(t, 0, f.ledger.mergeCalls)
	assert.Equal(t, []string{"report.pdf"}, f.ledger.names())
}

func TestIngest_DuplicateNamesCollapsed(t *testing.T) {
	f := newFixture(nil, "a.pdf")

	report, err := f.ingest.Ingest(context.Background(), []string{"a.pdf", "a.pdf"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, report.Succeeded)
	assert.Equal(t, 1, f.loader.callCount())
}

func TestIngest_SkipsFailingFileAndContinues(t *testing.T) {
	f := newFixture(nil, "good.pdf", "bad.pdf", "also-good.pdf")
	f.loader.errs["kb/bad.pdf"] = errors.New("corrupt xref table")

	report, err := f.ingest.Ingest(context.Background(), []string{"good.pdf", "bad.pdf", "also-good.pdf"})

	require.NoError(t, err)
	assert.Equal(t, []string{"good.pdf", "also-good.pdf"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "bad.pdf", report.Failed[0].File)
	assert.Contains(t, report.Failed[0].Err, "corrupt xref table")
	assert.Equal(t, []string{"also-good.pdf", "good.pdf"}, f.ledger.names())
}

func TestIngest_FailedFileRetriedLater(t *testing.T) {
	f := newFixture(nil, "flaky.pdf")
	f.loader.errs["kb/flaky.pdf"] = errors.New("temporarily unreadable")
	ctx := context.Background()

	first, err := f.ingest.Ingest(ctx, []string{"flaky.pdf"})
	require.NoError(t, err)
	assert.Len(t, first.Failed, 1)
	assert.Empty(t, f.ledger.names())

	delete(f.loader.errs, "kb/flaky.pdf")
	second, err := f.ingest.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flaky.pdf"}, second.Succeeded)
	assert.Equal(t, []string{"flaky.pdf"}, f.ledger.names())
}

func TestIngest_IndexWriteFailureLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(nil, "a.pdf", "b.pdf")
	f.store.writeErr = errors.New("disk full")

	report, err := f.ingest.Ingest(context.Background(), []string{"a.pdf", "b.pdf"})

	require.NoError(t, err)
	assert.Empty(t, report.Succeeded)
	assert.Len(t, report.Failed, 2)
	assert.Equal(t, 0, report.Chunks)
	assert.Empty(t, report.ChunksPerFile)
	assert.Equal(t, 0, f.ledger.mergeCalls)
	assert.False(t, f.index.Ready())
}

func TestIngest_EmbeddingFailureReportsFiles(t *testing.T) {
	f := newFixture(nil, "a.pdf")
	f.embedder.embedErr = errors.New("connection refused")

	report, err := f.ingest.Ingest(context.Background(), []string{"a.pdf"})

	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Err, "connection refused")
	assert.Empty(t, f.ledger.names())
}

func TestIngest_EmptyDocumentStillRecorded(t *testing.T) {
	f := newFixture(nil, "blank.pdf")
	f.loader.pages["kb/blank.pdf"] = []string{""}

	report, err := f.ingest.Ingest(context.Background(), []string{"blank.pdf"})

	require.NoError(t, err)
	assert.Equal(t, []string{"blank.pdf"}, report.Succeeded)
	assert.Equal(t, 0, report.Chunks)
	assert.False(t, f.index.Ready())
	assert.Equal(t, []string{"blank.pdf"}, f.ledger.names())
}

func TestIngest_RejectsPathNames(t *testing.T) {
	f := newFixture(nil)

	report, err := f.ingest.Ingest(context.Background(), []string{"../secrets.pdf"})

	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 0, f.loader.callCount())
}

func TestIngest_LedgerLoadError(t *testing.T) {
	f := newFixture(nil, "a.pdf")
	f.ledger.loadErr = errors.New("permission denied")

	_, err := f.ingest.Ingest(context.Background(), []string{"a.pdf"})

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 0, f.loader.callCount())
}

func TestIngest_LedgerMergeError(t *testing.T) {
	f := newFixture(nil, "a.pdf")
	f.ledger.mergeErr = errors.New("read-only file system")

	_, err := f.ingest.Ingest(context.Background(), []string{"a.pdf"})

	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestIngest_CancelledContext(t *testing.T) {
	f := newFixture(nil, "a.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ingest.Ingest(ctx, []string{"a.pdf"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.ledger.names())
}

func TestReconcile_IngestsExactlyMissingFiles(t *testing.T) {
	f := newFixture([]string{"doc2.pdf", "gone.pdf"}, "doc1.pdf", "doc2.pdf", "doc3.pdf")
	ctx := context.Background()

	report, err := f.ingest.Reconcile(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"doc1.pdf", "doc3.pdf"}, report.Succeeded)
	assert.ElementsMatch(t, []string{"kb/doc1.pdf", "kb/doc3.pdf"}, f.loader.calls)
	assert.Subset(t, f.ledger.names(), []string{"doc1.pdf", "doc3.pdf"})
	assert.Contains(t, f.ledger.names(), "gone.pdf")
}

func TestReconcile_NothingToDo(t *testing.T) {
	f := newFixture([]string{"doc1.pdf"}, "doc1.pdf")

	report, err := f.ingest.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Empty(t, report.Succeeded)
	assert.Equal(t, 0, f.loader.callCount())
}

func TestUpload_RejectsNonPDFBeforeWriting(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		message  string
	}{
		{"text file", "notes.txt", MsgPDFOnly},
		{"no extension", "README", MsgPDFOnly},
		{"pdf in the middle", "report.pdf.exe", MsgPDFOnly},
		{"empty", "", MsgNoFile},
		{"blank", "   ", MsgNoFile},
		{"directory only", "../", MsgNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			f.ledger.loadErr = errors.New("ledger must not be touched")

			result, err := f.ingest.Upload(context.Background(), tt.filename, strings.NewReader("data"))

			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.message, domain.ValidationMessage(err))
			assert.Equal(t, 0, f.kb.saveCount())
		})
	}
}

func TestUpload_AcceptsUppercaseExtension(t *testing.T) {
	f := newFixture(nil)

	result, err := f.ingest.Upload(context.Background(), "SCAN.PDF", strings.NewReader("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, "SCAN.PDF", result.File)
}

func TestUpload_StripsDirectories(t *testing.T) {
	f := newFixture(nil)

	result, err := f.ingest.Upload(context.Background(), `..\..\etc\evil.pdf`, strings.NewReader("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, "evil.pdf", result.File)
	assert.Equal(t, []string{"evil.pdf"}, f.kb.saves)
}

func TestUpload_TwiceReportsAlreadyProcessed(t *testing.T) {
	f := newFixture(nil)
	f.loader.pages["kb/report.pdf"] = []string{"quarterly turbine output", "invoice totals"}
	ctx := context.Background()

	first, err := f.ingest.Upload(ctx, "report.pdf", strings.NewReader("%PDF-1.7 v1"))
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, 2, first.Chunks)
	countAfterFirst, err := f.index.Count(ctx)
	require.NoError(t, err)

	second, err := f.ingest.Upload(ctx, "report.pdf", strings.NewReader("%PDF-1.7 v2"))
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, 0, second.Chunks)

	countAfterSecond, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, countAfterFirst, countAfterSecond)
	assert.Equal(t, 1, f.kb.saveCount())
	assert.Equal(t, []byte("%PDF-1.7 v1"), f.kb.files["report.pdf"])
}

func TestUpload_LoaderFailure(t *testing.T) {
	f := newFixture(nil)
	f.loader.errs["kb/broken.pdf"] = errors.New("not a PDF")

	result, err := f.ingest.Upload(context.Background(), "broken.pdf", strings.NewReader("junk"))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Empty(t, f.ledger.names())
}

func TestUpload_SaveFailure(t *testing.T) {
	f := newFixture(nil)
	f.kb.saveErr = errors.New("no space left on device")

	_, err := f.ingest.Upload(context.Background(), "a.pdf", strings.NewReader("%PDF"))

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 0, f.loader.callCount())
}

func TestUpload_ConcurrentDistinctFilesAllRecorded(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.ingest.Upload(ctx, fmt.Sprintf("doc%d.pdf", i), strings.NewReader("%PDF"))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, f.ledger.names(), n)
	count, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
	assert.Equal(t, 1, f.store.createCalls)
}

func TestUpload_ConcurrentReconcileCannotClaimUpload(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	reconciled := make(chan *domain.IngestionReport, 1)
	f.kb.afterSave = func(string) {
		// The file is on disk but not yet ingested.
		go func() {
			report, err := f.ingest.Reconcile(ctx)
			assert.NoError(t, err)
			reconciled <- report
		}()
		time.Sleep(50 * time.Millisecond)
	}

	result, err := f.ingest.Upload(ctx, "fresh.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, 1, result.Chunks)

	report := <-reconciled
	require.NotNil(t, report)
	assert.Empty(t, report.Succeeded)

	count, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"fresh.pdf"}, f.ledger.names())
}

func TestProcessedAndStatus(t *testing.T) {
	f := newFixture([]string{"b.pdf", "a.pdf"})
	ctx := context.Background()

	names, err := f.ingest.Processed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names)

	status, err := f.ingest.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Ready)
	assert.Equal(t, 0, status.Chunks)
	assert.Equal(t, 2, status.ProcessedFiles)
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("a.pdf"))
	assert.True(t, IsSupportedFile("A.PDF"))
	assert.False(t, IsSupportedFile("a.txt"))
	assert.False(t, IsSupportedFile("pdf"))
}

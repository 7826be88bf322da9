package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplist/pkg/models"
)

func openTestStore(t *testing.T, opts ...Option) *Pebble {
	t.Helper()
	s, err := Open(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertFormOnSubmission(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f, err := s.UpsertFormOnSubmission(ctx, "f1", 100)
	require.NoError(t, err)
	assert.Equal(t, "f1", f.FormID)
	assert.Equal(t, int64(100), f.Created)
	assert.Equal(t, int64(100), f.Updated)
	assert.Equal(t, int64(1), f.SubmissionCount)

	// second submission: created stays, updated moves, count increments
	f, err = s.UpsertFormOnSubmission(ctx, "f1", 200)
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.Created)
	assert.Equal(t, int64(200), f.Updated)
	assert.Equal(t, int64(2), f.SubmissionCount)
}

func TestUpsertFormConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpsertFormOnSubmission(ctx, "busy", int64(100+i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	f, err := s.getForm("busy")
	require.NoError(t, err)
	assert.Equal(t, int64(n), f.SubmissionCount, "no lost increments under concurrency")
}

func TestUpdateFormNotifyPreservesCounters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertFormOnSubmission(ctx, "f1", 100)
	require.NoError(t, err)

	f, err := s.UpdateFormNotify(ctx, "f1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", f.Notify)
	assert.Equal(t, int64(1), f.SubmissionCount)
	assert.Equal(t, int64(100), f.Created)
	assert.Equal(t, int64(100), f.Updated)

	// idempotent: same value twice leaves everything unchanged
	f2, err := s.UpdateFormNotify(ctx, "f1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, f, f2)
}

func TestUpdateFormNotifyCreatesRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f, err := s.UpdateFormNotify(ctx, "fresh", "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "fresh", f.FormID)
	assert.Equal(t, "b@x.com", f.Notify)
	assert.Zero(t, f.SubmissionCount)
	assert.Zero(t, f.Created)

	forms, _, err := s.ScanForms(ctx, "")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "fresh", forms[0].FormID)
}

func putEntries(t *testing.T, s *Pebble, formID string, timestamps ...int64) {
	t.Helper()
	ctx := context.Background()
	for _, ts := range timestamps {
		e := models.Entry{FormID: formID, Timestamp: ts, Fields: map[string]any{"ts": ts}}
		require.NoError(t, s.PutEntry(ctx, e))
	}
}

func TestQueryEntriesInclusiveBounds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	putEntries(t, s, "f1", 100, 200, 300, 400)

	got, next, err := s.QueryEntries(ctx, "f1", 200, 300, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, got, 2)
	assert.Equal(t, int64(200), got[0].Timestamp)
	assert.Equal(t, int64(300), got[1].Timestamp)
}

func TestQueryEntriesFromAfterTo(t *testing.T) {
	s := openTestStore(t)
	putEntries(t, s, "f1", 100, 200)

	got, next, err := s.QueryEntries(context.Background(), "f1", 300, 200, "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, next)
}

func TestQueryEntriesSameSecondNoOverwrite(t *testing.T) {
	s := openTestStore(t)
	putEntries(t, s, "f1", 100, 100, 100)

	got, _, err := s.QueryEntries(context.Background(), "f1", 0, 100, "")
	require.NoError(t, err)
	assert.Len(t, got, 3, "same-second submissions must not collide")
}

func TestQueryEntriesPagination(t *testing.T) {
	s := openTestStore(t, WithPageSize(2))
	ctx := context.Background()
	putEntries(t, s, "f1", 10, 20, 30, 40, 50)

	var all []models.Entry
	token := ""
	pages := 0
	for {
		items, next, err := s.QueryEntries(ctx, "f1", 0, 1000, token)
		require.NoError(t, err)
		all = append(all, items...)
		pages++
		if next == "" {
			break
		}
		token = next
	}
	assert.GreaterOrEqual(t, pages, 3)
	require.Len(t, all, 5)
	for i, want := range []int64{10, 20, 30, 40, 50} {
		assert.Equal(t, want, all[i].Timestamp)
	}
}

func TestQueryEntriesScopedToForm(t *testing.T) {
	s := openTestStore(t)
	putEntries(t, s, "f1", 100)
	putEntries(t, s, "f2", 100)

	got, _, err := s.QueryEntries(context.Background(), "f1", 0, 1000, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f1", got[0].FormID)
}

func TestScanFormsPagination(t *testing.T) {
	s := openTestStore(t, WithPageSize(2))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.UpsertFormOnSubmission(ctx, fmt.Sprintf("form-%d", i), 100)
		require.NoError(t, err)
	}
	// entries must not leak into the form scan
	putEntries(t, s, "form-0", 100, 200)

	var all []models.Form
	token := ""
	for {
		items, next, err := s.ScanForms(ctx, token)
		require.NoError(t, err)
		all = append(all, items...)
		if next == "" {
			break
		}
		token = next
	}
	require.Len(t, all, 5)
	for _, f := range all {
		assert.Contains(t, f.FormID, "form-")
	}
}

func TestPutEntryPreservesFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := models.Entry{FormID: "f1", Timestamp: 100, Fields: map[string]any{"email": "a@b.com"}}
	require.NoError(t, s.PutEntry(ctx, e))

	got, _, err := s.QueryEntries(ctx, "f1", 0, 100, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@b.com", got[0].Fields["email"])
}

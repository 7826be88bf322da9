package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"simplist/pkg/errs"
	"simplist/pkg/logger"
	"simplist/pkg/models"
)

const defaultPageSize = 100

// lockStripes bounds the number of per-form mutexes; forms hash onto them.
const lockStripes = 64

// Pebble is the durable store for the Forms and Entries collections.
//
// Key layout:
//
//	form:<formId>:meta                       form aggregate record (JSON)
//	form:<formId>:entry:<ts20>-<seq6>        one submission (JSON, flat)
//
// The entry key embeds the zero-padded unix-seconds timestamp so a prefix
// iteration yields entries in timestamp order, plus a process-wide sequence
// so two submissions landing in the same second never collide.
type Pebble struct {
	db       *pebble.DB
	path     string
	pageSize int
	seq      uint64
	locks    [lockStripes]sync.Mutex
}

// Option configures a Pebble store.
type Option func(*Pebble)

// WithPageSize bounds the number of items returned per query/scan page.
func WithPageSize(n int) Option {
	return func(s *Pebble) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string, opts ...Option) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, errs.Storage("open", err)
	}
	s := &Pebble{db: db, path: path, pageSize: defaultPageSize}
	for _, o := range opts {
		o(s)
	}
	logger.Info("pebble_opened", "path", path, "page_size", s.pageSize)
	return s, nil
}

// Close closes the underlying pebble DB.
func (s *Pebble) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func (s *Pebble) Ready() bool {
	return s != nil && s.db != nil
}

func formMetaKey(formID string) []byte {
	return []byte("form:" + formID + ":meta")
}

func entryPrefix(formID string) []byte {
	return []byte("form:" + formID + ":entry:")
}

func (s *Pebble) entryKey(formID string, ts int64) []byte {
	seq := atomic.AddUint64(&s.seq, 1)
	return []byte(fmt.Sprintf("form:%s:entry:%020d-%06d", formID, ts, seq%1000000))
}

func (s *Pebble) lockFor(formID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(formID))
	return &s.locks[h.Sum32()%lockStripes]
}

// UpsertFormOnSubmission atomically records one submission against the form
// aggregate: updated moves to ts, created is set only when absent, and
// submissionCount increments by exactly 1. The per-form lock makes the
// increment linearizable; callers never read-modify-write form state.
// Returns the post-update form with all fields.
func (s *Pebble) UpsertFormOnSubmission(ctx context.Context, formID string, ts int64) (models.Form, error) {
	if err := ctx.Err(); err != nil {
		return models.Form{}, errs.Storage("upsert form", err)
	}
	mu := s.lockFor(formID)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.getForm(formID)
	if err != nil {
		return models.Form{}, err
	}
	f.FormID = formID
	if f.Created == 0 {
		f.Created = ts
	}
	f.Updated = ts
	f.SubmissionCount++

	if err := s.putForm(f); err != nil {
		logger.Error("upsert_form_failed", "form", formID, "error", err)
		return models.Form{}, err
	}
	logger.Debug("form_upserted", "form", formID, "count", f.SubmissionCount)
	return f, nil
}

// UpdateFormNotify overwrites the notify field, leaving created, updated and
// submissionCount untouched. A never-seen formId gets a fresh record holding
// only identity and notify.
func (s *Pebble) UpdateFormNotify(ctx context.Context, formID, recipients string) (models.Form, error) {
	if err := ctx.Err(); err != nil {
		return models.Form{}, errs.Storage("update notify", err)
	}
	mu := s.lockFor(formID)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.getForm(formID)
	if err != nil {
		return models.Form{}, err
	}
	f.FormID = formID
	f.Notify = recipients

	if err := s.putForm(f); err != nil {
		logger.Error("update_notify_failed", "form", formID, "error", err)
		return models.Form{}, err
	}
	logger.Info("notify_updated", "form", formID)
	return f, nil
}

// getForm loads the form record, returning the zero Form when absent.
func (s *Pebble) getForm(formID string) (models.Form, error) {
	v, closer, err := s.db.Get(formMetaKey(formID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return models.Form{}, nil
		}
		return models.Form{}, errs.Storage("get form", err)
	}
	defer closer.Close()
	var f models.Form
	if err := json.Unmarshal(v, &f); err != nil {
		return models.Form{}, errs.Storage("decode form", err)
	}
	return f, nil
}

func (s *Pebble) putForm(f models.Form) error {
	b, err := json.Marshal(f)
	if err != nil {
		return errs.Storage("encode form", err)
	}
	if err := s.db.Set(formMetaKey(f.FormID), b, pebble.Sync); err != nil {
		return errs.Storage("put form", err)
	}
	return nil
}

// PutEntry writes one submission entry. Entries are immutable; the key's
// sequence component guarantees no overwrite even for identical timestamps.
func (s *Pebble) PutEntry(ctx context.Context, e models.Entry) error {
	if err := ctx.Err(); err != nil {
		return errs.Storage("put entry", err)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return errs.Storage("encode entry", err)
	}
	key := s.entryKey(e.FormID, e.Timestamp)
	if err := s.db.Set(key, b, pebble.Sync); err != nil {
		logger.Error("put_entry_failed", "form", e.FormID, "key", string(key), "error", err)
		return errs.Storage("put entry", err)
	}
	logger.Debug("entry_saved", "form", e.FormID, "key", string(key))
	return nil
}

// QueryEntries returns one page of entries for formID with
// from <= timestamp <= to, inclusive on both bounds, in key (timestamp)
// order. A non-empty continuation token resumes after the last returned
// entry; a non-empty returned token means more pages may follow.
func (s *Pebble) QueryEntries(ctx context.Context, formID string, from, to int64, token string) ([]models.Entry, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", errs.Storage("query entries", err)
	}
	if from < 0 {
		from = 0
	}
	prefix := entryPrefix(formID)
	start := []byte(fmt.Sprintf("form:%s:entry:%020d", formID, from))
	if token != "" {
		start = append([]byte(token), 0)
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, "", errs.Storage("query entries", err)
	}
	defer iter.Close()

	out := []models.Entry{}
	next := ""
	for iter.SeekGE(start); iter.Valid(); iter.Next() {
		key := iter.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		ts, ok := entryKeyTimestamp(key[len(prefix):])
		if !ok {
			continue
		}
		if ts > to {
			break
		}
		var e models.Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, "", errs.Storage("decode entry", err)
		}
		out = append(out, e)
		if len(out) >= s.pageSize {
			next = string(append([]byte(nil), key...))
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, "", errs.Storage("query entries", err)
	}
	return out, next, nil
}

// ScanForms returns one unfiltered page of all form records in key order.
// Continuation token semantics match QueryEntries.
func (s *Pebble) ScanForms(ctx context.Context, token string) ([]models.Form, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", errs.Storage("scan forms", err)
	}
	prefix := []byte("form:")
	start := prefix
	if token != "" {
		start = append([]byte(token), 0)
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, "", errs.Storage("scan forms", err)
	}
	defer iter.Close()

	out := []models.Form{}
	next := ""
	for iter.SeekGE(start); iter.Valid(); iter.Next() {
		key := iter.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		if !bytes.HasSuffix(key, []byte(":meta")) {
			continue
		}
		var f models.Form
		if err := json.Unmarshal(iter.Value(), &f); err != nil {
			return nil, "", errs.Storage("decode form", err)
		}
		out = append(out, f)
		if len(out) >= s.pageSize {
			next = string(append([]byte(nil), key...))
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, "", errs.Storage("scan forms", err)
	}
	return out, next, nil
}

// Keys returns all raw keys starting with prefix; used by operator tooling.
func (s *Pebble) Keys(prefix string) ([]string, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, errs.Storage("list keys", err)
	}
	defer iter.Close()
	var out []string
	pfx := []byte(prefix)
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(append([]byte(nil), iter.Key()...)))
	}
	return out, iter.Error()
}

// GetRaw returns the raw value for a key; used by operator tooling.
func (s *Pebble) GetRaw(key string) (string, error) {
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		return "", errs.Storage("get key", err)
	}
	defer closer.Close()
	return string(v), nil
}

// entryKeyTimestamp parses the leading padded timestamp from the part of an
// entry key following the prefix, e.g. "00000000000000000100-000001".
func entryKeyTimestamp(rest []byte) (int64, bool) {
	if len(rest) < 20 {
		return 0, false
	}
	ts, err := strconv.ParseInt(string(rest[:20]), 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

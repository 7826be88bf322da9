package submissions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplist/pkg/errs"
	"simplist/pkg/logger"
	"simplist/pkg/models"
	"simplist/pkg/notify"
)

func init() {
	logger.Init("error")
}

type fakeStore struct {
	upsertIn   []string
	upsertOut  models.Form
	upsertErr  error
	putIn      []models.Entry
	putErr     error
	queryIn    [][3]int64
	queryPages []queryPage
	scanPages  []scanPage
	notifyIn   [][2]string
	notifyOut  models.Form
	notifyErr  error
}

type queryPage struct {
	items []models.Entry
	next  string
}

type scanPage struct {
	items []models.Form
	next  string
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) UpsertFormOnSubmission(_ context.Context, formID string, ts int64) (models.Form, error) {
	f.upsertIn = append(f.upsertIn, formID)
	return f.upsertOut, f.upsertErr
}

func (f *fakeStore) PutEntry(_ context.Context, e models.Entry) error {
	f.putIn = append(f.putIn, e)
	return f.putErr
}

func (f *fakeStore) QueryEntries(_ context.Context, formID string, from, to int64, token string) ([]models.Entry, string, error) {
	f.queryIn = append(f.queryIn, [3]int64{from, to})
	if len(f.queryPages) == 0 {
		return nil, "", nil
	}
	p := f.queryPages[0]
	f.queryPages = f.queryPages[1:]
	return p.items, p.next, nil
}

func (f *fakeStore) ScanForms(_ context.Context, token string) ([]models.Form, string, error) {
	if len(f.scanPages) == 0 {
		return nil, "", nil
	}
	p := f.scanPages[0]
	f.scanPages = f.scanPages[1:]
	return p.items, p.next, nil
}

func (f *fakeStore) UpdateFormNotify(_ context.Context, formID, recipients string) (models.Form, error) {
	f.notifyIn = append(f.notifyIn, [2]string{formID, recipients})
	return f.notifyOut, f.notifyErr
}

type fakeNotifier struct {
	sends [][2]string
	err   error
}

func (f *fakeNotifier) Send(_ context.Context, recipients string, payload []byte) error {
	f.sends = append(f.sends, [2]string{recipients, string(payload)})
	return f.err
}

func newTestService(st *fakeStore, n *fakeNotifier, now int64) *Service {
	s := NewService(st, notify.NewGate(n))
	s.now = func() int64 { return now }
	return s
}

func TestSubmitValidation(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st, &fakeNotifier{}, 100)

	_, err := svc.Submit(context.Background(), "", map[string]any{"a": 1})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Submit(context.Background(), "f1", nil)
	require.ErrorIs(t, err, errs.ErrValidation)

	// no side effect before validation passes
	assert.Empty(t, st.upsertIn)
	assert.Empty(t, st.putIn)
}

func TestSubmitHappyPath(t *testing.T) {
	st := &fakeStore{upsertOut: models.Form{FormID: "f1", Created: 100, Updated: 100, SubmissionCount: 1}}
	n := &fakeNotifier{}
	svc := newTestService(st, n, 100)

	entry, err := svc.Submit(context.Background(), "f1", map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "f1", entry.FormID)
	assert.Equal(t, int64(100), entry.Timestamp)
	assert.Equal(t, "a@b.com", entry.Fields["email"])

	require.Len(t, st.putIn, 1)
	// notify unset: nothing dispatched
	assert.Empty(t, n.sends)
}

func TestSubmitDispatchesWhenNotifySet(t *testing.T) {
	st := &fakeStore{upsertOut: models.Form{FormID: "f1", SubmissionCount: 1, Notify: "a@x.com,b@x.com"}}
	n := &fakeNotifier{}
	svc := newTestService(st, n, 100)

	_, err := svc.Submit(context.Background(), "f1", map[string]any{"msg": "hi"})
	require.NoError(t, err)

	require.Len(t, n.sends, 1, "exactly one dispatch per submission")
	assert.Equal(t, "a@x.com,b@x.com", n.sends[0][0], "recipients travel verbatim, un-split")
	assert.Contains(t, n.sends[0][1], `"msg":"hi"`)
}

func TestSubmitNotificationFailureSurfaces(t *testing.T) {
	st := &fakeStore{upsertOut: models.Form{FormID: "f1", SubmissionCount: 1, Notify: "a@x.com"}}
	n := &fakeNotifier{err: errors.New("mail service down")}
	svc := newTestService(st, n, 100)

	_, err := svc.Submit(context.Background(), "f1", map[string]any{"a": 1})
	require.ErrorIs(t, err, errs.ErrNotification)

	// the entry was already durably written before dispatch failed
	assert.Len(t, st.putIn, 1)
}

func TestSubmitUpsertFailureSkipsEntryWrite(t *testing.T) {
	st := &fakeStore{upsertErr: errs.Storagef("backend unavailable")}
	svc := newTestService(st, &fakeNotifier{}, 100)

	_, err := svc.Submit(context.Background(), "f1", map[string]any{"a": 1})
	require.ErrorIs(t, err, errs.ErrStorage)
	assert.Empty(t, st.putIn, "entry write must not follow a failed upsert")
}

func TestSubmitNoFormDataReturned(t *testing.T) {
	st := &fakeStore{upsertOut: models.Form{}}
	svc := newTestService(st, &fakeNotifier{}, 100)

	_, err := svc.Submit(context.Background(), "f1", map[string]any{"a": 1})
	require.ErrorIs(t, err, errs.ErrStorage)
	assert.Contains(t, err.Error(), "no form data returned")
}

func TestListEntriesSymbolicFrom(t *testing.T) {
	now := int64(1_000_000)
	cases := []struct {
		from, to string
		wantFrom int64
		wantTo   int64
	}{
		{"", "", 0, now},
		{"alltime", "", 0, now},
		{"yesterday", "", now - 86400, now},
		{"lastweek", "", now - 7*86400, now},
		{"12345", "67890", 12345, 67890},
	}
	for _, tc := range cases {
		st := &fakeStore{}
		svc := newTestService(st, &fakeNotifier{}, now)
		_, err := svc.ListEntries(context.Background(), "f1", tc.from, tc.to)
		require.NoError(t, err)
		require.Len(t, st.queryIn, 1)
		assert.Equal(t, tc.wantFrom, st.queryIn[0][0], "from=%q", tc.from)
		assert.Equal(t, tc.wantTo, st.queryIn[0][1], "to=%q", tc.to)
	}
}

func TestListEntriesInvalidBounds(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeNotifier{}, 100)
	_, err := svc.ListEntries(context.Background(), "f1", "not-a-time", "")
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.ListEntries(context.Background(), "", "", "")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestListEntriesDrainsAllPages(t *testing.T) {
	e := func(ts int64) models.Entry { return models.Entry{FormID: "f1", Timestamp: ts} }
	st := &fakeStore{queryPages: []queryPage{
		{items: []models.Entry{e(1), e(2)}, next: "t1"},
		{items: []models.Entry{e(3)}, next: "t2"},
		{items: []models.Entry{e(4)}, next: ""},
	}}
	svc := newTestService(st, &fakeNotifier{}, 100)

	got, err := svc.ListEntries(context.Background(), "f1", "alltime", "")
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, want := range []int64{1, 2, 3, 4} {
		assert.Equal(t, want, got[i].Timestamp)
	}
}

func TestListFormsDrainsAllPages(t *testing.T) {
	st := &fakeStore{scanPages: []scanPage{
		{items: []models.Form{{FormID: "a"}, {FormID: "b"}}, next: "t1"},
		{items: []models.Form{{FormID: "c"}}, next: ""},
	}}
	svc := newTestService(st, &fakeNotifier{}, 100)

	got, err := svc.ListForms(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestUpdateNotificationSettings(t *testing.T) {
	st := &fakeStore{notifyOut: models.Form{FormID: "f1", Notify: "a@x.com"}}
	svc := newTestService(st, &fakeNotifier{}, 100)

	f, err := svc.UpdateNotificationSettings(context.Background(), "f1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", f.Notify)
	assert.Equal(t, [][2]string{{"f1", "a@x.com"}}, st.notifyIn)

	_, err = svc.UpdateNotificationSettings(context.Background(), "", "a@x.com")
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.UpdateNotificationSettings(context.Background(), "f1", "")
	require.ErrorIs(t, err, errs.ErrValidation)
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplist/pkg/logger"
	"simplist/pkg/models"
	"simplist/pkg/notify"
	"simplist/pkg/store"
	"simplist/pkg/submissions"
)

func init() {
	logger.Init("error")
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(t.TempDir(), store.WithPageSize(2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := submissions.NewService(st, notify.NewGate(notify.LogNotifier{}))
	srv := httptest.NewServer(Handler(svc))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func TestPing(t *testing.T) {
	srv := setupServer(t)
	resp := postJSON(t, srv.URL+"/v1/submissions", map[string]any{"action": "ping"})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out["pong"])
}

func TestSubmitEndToEnd(t *testing.T) {
	srv := setupServer(t)

	resp := postJSON(t, srv.URL+"/v1/submissions", map[string]any{
		"formId": "f1",
		"fields": map[string]any{"email": "a@b.com"},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// success responses carry the cross-origin pair
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	var out struct {
		Success bool         `json:"success"`
		Data    models.Entry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, "f1", out.Data.FormID)
	assert.Equal(t, "a@b.com", out.Data.Fields["email"])
	assert.NotZero(t, out.Data.Timestamp)
}

func TestSubmitMissingFormID(t *testing.T) {
	srv := setupServer(t)

	resp := postJSON(t, srv.URL+"/v1/submissions", map[string]any{
		"fields": map[string]any{"email": "a@b.com"},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	// nothing was written
	listResp, err := http.Get(srv.URL + "/v1/forms")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var forms []models.Form
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&forms))
	assert.Empty(t, forms)
}

func TestSubmitMissingFields(t *testing.T) {
	srv := setupServer(t)
	resp := postJSON(t, srv.URL+"/v1/submissions", map[string]any{"formId": "f1"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListEntriesAllTimeTransparentPagination(t *testing.T) {
	srv := setupServer(t)

	// page size is 2; five submissions force multiple backend pages
	for i := 0; i < 5; i++ {
		resp := postJSON(t, srv.URL+"/v1/submissions", map[string]any{
			"formId": "f1",
			"fields": map[string]any{"n": i},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/v1/forms/f1/entries?from=alltime")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []models.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Len(t, entries, 5)
}

func TestListEntriesInvalidFrom(t *testing.T) {
	srv := setupServer(t)
	resp, err := http.Get(srv.URL + "/v1/forms/f1/entries?from=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListForms(t *testing.T) {
	srv := setupServer(t)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, srv.URL+"/v1/submissions", map[string]any{
			"formId": fmt.Sprintf("form-%d", i),
			"fields": map[string]any{"a": 1},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/v1/forms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var forms []models.Form
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&forms))
	require.Len(t, forms, 3)
	for _, f := range forms {
		assert.Equal(t, int64(1), f.SubmissionCount)
	}
}

func TestUpdateNotifySettings(t *testing.T) {
	srv := setupServer(t)

	b, _ := json.Marshal(map[string]string{"emails": "owner@x.com"})
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/forms/f1/notify", bytes.NewReader(b))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success bool        `json:"success"`
		Data    models.Form `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, "owner@x.com", out.Data.Notify)

	// a settings-only form shows up in the form list
	listResp, err := http.Get(srv.URL + "/v1/forms")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var forms []models.Form
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&forms))
	require.Len(t, forms, 1)
	assert.Equal(t, "f1", forms[0].FormID)

	// missing emails is a validation error
	req2, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/forms/f1/notify", bytes.NewReader([]byte(`{}`)))
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

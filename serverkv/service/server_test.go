package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubert-project/hubert/envelope"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(NewMemoryTable())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestServerPutThenGet(t *testing.T) {
	_, ts := newTestServer(t)
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New("hello server")

	body := arid.String() + "\n" + env.String()
	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post(ts.URL+"/get", "text/plain", strings.NewReader(arid.String()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestServerPutIsWriteOnce(t *testing.T) {
	_, ts := newTestServer(t)
	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New("first")

	body := arid.String() + "\n" + env.String()
	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/put", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServerGetUnknownARIDIsNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	arid, err := envelope.NewARID()
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/get", "text/plain", strings.NewReader(arid.String()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerPutRejectsMalformedARID(t *testing.T) {
	_, ts := newTestServer(t)
	body := "not-an-arid\nur:envelope/00"
	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServerGetExpiredEntryIsNotFound(t *testing.T) {
	s := NewServer(NewMemoryTable(), WithMaxTTL(time.Second))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	arid, err := envelope.NewARID()
	require.NoError(t, err)
	env := envelope.New("expiring")
	body := arid.String() + "\n" + env.String() + "\n0"

	resp, err := http.Post(ts.URL+"/put", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	time.Sleep(1100 * time.Millisecond)

	resp, err = http.Post(ts.URL+"/get", "text/plain", strings.NewReader(arid.String()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMemoryTableDeleteExpired(t *testing.T) {
	tbl := NewMemoryTable()
	err := tbl.Insert(nil, "a", "env-a", time.Now().Unix()-10)
	require.NoError(t, err)
	err = tbl.Insert(nil, "b", "env-b", time.Now().Unix()+3600)
	require.NoError(t, err)

	pruned, err := tbl.DeleteExpired(nil, time.Now().Unix())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, pruned)

	_, _, ok, err := tbl.Get(nil, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

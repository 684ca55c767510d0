package checker_test

import (
	"context"
	"crypto/md5" //nolint:gosec // test fixture
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelling/mogilefs-utils/internal/checker"
)

func TestCheck_FetchHashesBody(t *testing.T) {
	body := []byte("hello world")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write(body) //nolint:errcheck // test handler
	}))
	defer srv.Close()

	c := checker.New(checker.PolicyFetch, checker.DigestMD5, time.Second, 2)
	results := c.Check(context.Background(), []string{srv.URL})
	require.Len(t, results, 1)

	sum := md5.Sum(body) //nolint:gosec // test fixture
	res := results[0]
	assert.Equal(t, "200 OK", res.Status)
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Hash)
	assert.True(t, res.HasLength)
	assert.Equal(t, int64(len(body)), res.Length)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", res.LastModified)
	assert.False(t, res.NotFound)
}

func TestCheck_FetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := checker.New(checker.PolicyFetch, checker.DigestMD5, time.Second, 1)
	results := c.Check(context.Background(), []string{srv.URL})
	require.Len(t, results, 1)

	assert.True(t, results[0].NotFound)
	assert.Empty(t, results[0].Hash)
	assert.False(t, results[0].HasLength)
	assert.Contains(t, results[0].Status, "404")
}

func TestCheck_StatUsesHead(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.Header().Set("Content-Length", "42")
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
	}))
	defer srv.Close()

	c := checker.New(checker.PolicyStat, checker.DigestMD5, time.Second, 1)
	results := c.Check(context.Background(), []string{srv.URL})
	require.Len(t, results, 1)

	assert.Equal(t, http.MethodHead, method)
	res := results[0]
	assert.True(t, res.HasLength)
	assert.Equal(t, int64(42), res.Length)
	assert.Empty(t, res.Hash)
}

func TestCheck_PrintTouchesNoNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("print policy must not make requests")
	}))
	defer srv.Close()

	c := checker.New(checker.PolicyPrint, checker.DigestMD5, time.Second, 1)
	results := c.Check(context.Background(), []string{srv.URL, srv.URL})
	require.Len(t, results, 2)
	assert.Equal(t, srv.URL, results[0].URL)
	assert.Empty(t, results[0].Status)
}

func TestCheck_ConnectionErrorRecordedNotFatal(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck // test handler
	}))
	defer good.Close()

	// Port 0 never connects; the bad path must not abort the good one.
	c := checker.New(checker.PolicyFetch, checker.DigestMD5, time.Second, 2)
	results := c.Check(context.Background(), []string{"http://127.0.0.1:0/x", good.URL})
	require.Len(t, results, 2)

	assert.NotEmpty(t, results[0].Status)
	assert.Empty(t, results[0].Hash)
	assert.Equal(t, "200 OK", results[1].Status)
	assert.NotEmpty(t, results[1].Hash)
}

func TestCheck_ResultsKeepInputOrder(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("slow")) //nolint:errcheck // test handler
	}))
	defer slow.Close()
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fast")) //nolint:errcheck // test handler
	}))
	defer fast.Close()

	c := checker.New(checker.PolicyFetch, checker.DigestMD5, 5*time.Second, 2)
	results := c.Check(context.Background(), []string{slow.URL, fast.URL})
	require.Len(t, results, 2)
	assert.Equal(t, slow.URL, results[0].URL)
	assert.Equal(t, fast.URL, results[1].URL)
	assert.Equal(t, int64(4), results[0].Length)
}

func TestCheck_DigestSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x")) //nolint:errcheck // test handler
	}))
	defer srv.Close()

	hashes := make(map[string]bool)
	for _, d := range []checker.Digest{checker.DigestMD5, checker.DigestSHA1, checker.DigestBLAKE3} {
		c := checker.New(checker.PolicyFetch, d, time.Second, 1)
		results := c.Check(context.Background(), []string{srv.URL})
		require.Len(t, results, 1)
		require.NotEmpty(t, results[0].Hash)
		hashes[results[0].Hash] = true
	}
	assert.Len(t, hashes, 3, "each digest should produce a distinct hash")
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    checker.Policy
		wantErr bool
	}{
		{in: "print", want: checker.PolicyPrint},
		{in: "stat", want: checker.PolicyStat},
		{in: "fetch", want: checker.PolicyFetch},
		{in: "bogus", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := checker.ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseDigest(t *testing.T) {
	for _, in := range []string{"md5", "sha1", "blake3"} {
		d, err := checker.ParseDigest(in)
		require.NoError(t, err)
		assert.Equal(t, in, d.String())
	}
	_, err := checker.ParseDigest("crc32")
	assert.Error(t, err)
}

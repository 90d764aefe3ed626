package yadisk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// downloadServer simulates the two-step download: a link endpoint and the
// transfer host serving the payload. failGets makes the first n transfer
// attempts send a truncated body and then fail the next request, exercising
// the retry-and-rewind path.
type downloadServer struct {
	srv     *httptest.Server
	payload []byte

	linkCalls atomic.Int32
	getCalls  atomic.Int32
	failGets  int32
}

func newDownloadServer(t *testing.T, payload []byte) *downloadServer {
	t.Helper()

	ds := &downloadServer{payload: payload}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/download", func(w http.ResponseWriter, _ *http.Request) {
		ds.linkCalls.Add(1)
		fmt.Fprintf(w, `{"href":"%s/download-target"}`, ds.srv.URL)
	})
	mux.HandleFunc("/download-target", func(w http.ResponseWriter, _ *http.Request) {
		if ds.getCalls.Add(1) <= ds.failGets {
			// Partial body then an error status on the next attempt is hard
			// to fake; a plain 502 forces the engine down the retry path.
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.Write(ds.payload)
	})

	ds.srv = httptest.NewServer(mux)
	t.Cleanup(ds.srv.Close)

	return ds
}

func TestDownload_Buffer(t *testing.T) {
	payload := []byte("downloaded bytes")
	ds := newDownloadServer(t, payload)
	client := newTestClient(t, ds.srv.URL)

	var buf bytes.Buffer

	err := client.Download(context.Background(), "/file.bin", &buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf.Bytes())
}

func TestDownloadFile_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 4096)
	ds := newDownloadServer(t, payload)
	client := newTestClient(t, ds.srv.URL)

	localPath := filepath.Join(t.TempDir(), "out.bin")

	err := client.DownloadFile(context.Background(), "/big.bin", localPath)
	require.NoError(t, err)

	got, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// A seekable destination lets a failed attempt be retried: the output is
// rewound, never appended to.
func TestDownload_SeekableDestinationRetries(t *testing.T) {
	payload := []byte("retried payload")
	ds := newDownloadServer(t, payload)
	ds.failGets = 2

	client := newTestClient(t, ds.srv.URL)

	f, err := os.Create(filepath.Join(t.TempDir(), "out.bin"))
	require.NoError(t, err)
	defer f.Close()

	err = client.Download(context.Background(), "/file.bin", f)
	require.NoError(t, err)

	assert.Equal(t, int32(3), ds.getCalls.Load())
	assert.Equal(t, int32(3), ds.linkCalls.Load())

	got, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Final position equals total byte count.
	pos, err := f.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), pos)
}

// A non-seekable destination gets exactly one transfer attempt: consumed
// bytes cannot be unwound.
func TestDownload_NonSeekableSingleAttempt(t *testing.T) {
	ds := newDownloadServer(t, []byte("never delivered"))
	ds.failGets = 1

	client := newTestClient(t, ds.srv.URL)

	var buf bytes.Buffer

	err := client.Download(context.Background(), "/file.bin", &buf)
	require.ErrorIs(t, err, ErrBadGateway)
	assert.Equal(t, int32(1), ds.getCalls.Load())
}

func TestDownloadByLink(t *testing.T) {
	payload := []byte("direct link bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var buf bytes.Buffer

	err := client.DownloadByLink(context.Background(), srv.URL+"/direct", &buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf.Bytes())
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"DiskNotFoundError"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var buf bytes.Buffer

	err := client.Download(context.Background(), "/missing.bin", &buf)
	require.ErrorIs(t, err, ErrPathNotFound)
}

// Transfer hosts are assigned per link, so the GET asks the server to close
// the connection rather than pool it.
func TestDownload_TransferHeaders(t *testing.T) {
	var gotConnection string

	var srvURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/download", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"href":"%s/download-target"}`, srvURL)
	})
	mux.HandleFunc("/download-target", func(w http.ResponseWriter, r *http.Request) {
		gotConnection = r.Header.Get("Connection")
		w.Write([]byte("payload"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(t, srv.URL)

	var buf bytes.Buffer

	err := client.Download(context.Background(), "/h.bin", &buf)
	require.NoError(t, err)

	assert.Equal(t, "close", gotConnection)
}

// Upload then download of the same buffer yields identical content.
func TestTransferRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("roundtrip!"), 20000)

	var stored []byte

	var srvURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"href":"%s/transfer"}`, srvURL)
	})
	mux.HandleFunc("/v1/disk/resources/download", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"href":"%s/transfer"}`, srvURL)
	})
	mux.HandleFunc("/transfer", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			stored = body

			w.WriteHeader(http.StatusCreated)

			return
		}

		w.Write(stored)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, client.Upload(ctx, bytes.NewReader(payload), "/rt.bin"))

	var buf bytes.Buffer
	require.NoError(t, client.Download(ctx, "/rt.bin", &buf))

	assert.Equal(t, payload, buf.Bytes())
}

package yadisk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadisk-unofficial/yadisk-go/transport"
)

// uploadServer simulates the two-step upload: a link endpoint handing out a
// transfer URL and the transfer host receiving the bytes. Each PUT body is
// recorded; failPuts makes the first n transfer attempts fail with 500.
type uploadServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	bodies   [][]byte
	statuses []int

	linkCalls atomic.Int32
	failPuts  int32
}

func newUploadServer(t *testing.T) *uploadServer {
	t.Helper()

	us := &uploadServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, _ *http.Request) {
		us.linkCalls.Add(1)
		fmt.Fprintf(w, `{"href":"%s/upload-target"}`, us.srv.URL)
	})
	mux.HandleFunc("/upload-target", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		us.mu.Lock()
		us.bodies = append(us.bodies, body)
		attempt := len(us.bodies)
		us.mu.Unlock()

		if attempt <= int(us.failPuts) {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		w.WriteHeader(http.StatusCreated)
	})

	us.srv = httptest.NewServer(mux)
	t.Cleanup(us.srv.Close)

	return us
}

func (us *uploadServer) putBodies() [][]byte {
	us.mu.Lock()
	defer us.mu.Unlock()

	return append([][]byte(nil), us.bodies...)
}

func TestUpload_Seekable(t *testing.T) {
	us := newUploadServer(t)
	client := newTestClient(t, us.srv.URL)

	data := []byte("hello disk")
	src := bytes.NewReader(data)

	err := client.Upload(context.Background(), src, "/hello.txt")
	require.NoError(t, err)

	bodies := us.putBodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, data, bodies[0])

	// Final position equals total byte count.
	pos, err := src.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), pos)
}

func TestUpload_SeekableRetriesRewind(t *testing.T) {
	us := newUploadServer(t)
	us.failPuts = 2

	client := newTestClient(t, us.srv.URL)

	data := []byte("retry me please")

	err := client.Upload(context.Background(), bytes.NewReader(data), "/r.txt")
	require.NoError(t, err)

	bodies := us.putBodies()
	require.Len(t, bodies, 3)
	// Every attempt resends the full payload from the recorded offset;
	// a failed attempt never shifts where the next one starts.
	for i, body := range bodies {
		assert.Equal(t, data, body, "attempt %d", i+1)
	}

	// A fresh link is obtained per transfer attempt.
	assert.Equal(t, int32(3), us.linkCalls.Load())
}

// A seekable source consumed from a non-zero offset is replayed from that
// offset, not from zero.
func TestUpload_PreservesStartOffset(t *testing.T) {
	us := newUploadServer(t)
	us.failPuts = 1

	client := newTestClient(t, us.srv.URL)

	src := bytes.NewReader([]byte("skip-this|keep-this"))
	_, err := src.Seek(10, io.SeekStart)
	require.NoError(t, err)

	err = client.Upload(context.Background(), src, "/tail.txt")
	require.NoError(t, err)

	bodies := us.putBodies()
	require.Len(t, bodies, 2)
	assert.Equal(t, []byte("keep-this"), bodies[0])
	assert.Equal(t, []byte("keep-this"), bodies[1])
}

func TestUpload_NonSeekableSingleTransferAttempt(t *testing.T) {
	us := newUploadServer(t)
	us.failPuts = 1

	client := newTestClient(t, us.srv.URL)

	// MultiReader hides the Seek method; bytes cannot be replayed.
	src := io.MultiReader(strings.NewReader("one shot"))

	err := client.Upload(context.Background(), src, "/once.bin")
	require.ErrorIs(t, err, ErrInternalServer)
	assert.Len(t, us.putBodies(), 1)
}

func TestUpload_NonSeekableHappyPath(t *testing.T) {
	us := newUploadServer(t)
	client := newTestClient(t, us.srv.URL)

	data := "piped bytes"

	err := client.Upload(context.Background(), io.MultiReader(strings.NewReader(data)), "/pipe.bin")
	require.NoError(t, err)

	bodies := us.putBodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, []byte(data), bodies[0])
}

// The factory variant gets a fresh, unconsumed stream per attempt.
func TestUploadFrom_FreshStreamPerAttempt(t *testing.T) {
	us := newUploadServer(t)
	us.failPuts = 1

	client := newTestClient(t, us.srv.URL)

	var opens atomic.Int32

	open := func() (io.ReadCloser, error) {
		opens.Add(1)

		return io.NopCloser(strings.NewReader("generated")), nil
	}

	err := client.UploadFrom(context.Background(), open, "/gen.bin")
	require.NoError(t, err)

	assert.Equal(t, int32(2), opens.Load())

	bodies := us.putBodies()
	require.Len(t, bodies, 2)
	// Each attempt starts at byte zero of a fresh stream.
	assert.Equal(t, []byte("generated"), bodies[0])
	assert.Equal(t, []byte("generated"), bodies[1])
}

// trickleReader yields small chunks with a pause before each, so the full
// body takes far longer to transmit than any single pause.
type trickleReader struct {
	chunks int
	size   int
	pause  time.Duration
}

func (tr *trickleReader) Read(p []byte) (int, error) {
	if tr.chunks == 0 {
		return 0, io.EOF
	}

	time.Sleep(tr.pause)
	tr.chunks--

	n := tr.size
	if n > len(p) {
		n = len(p)
	}

	return n, nil
}

// A source that keeps producing bytes must outlive the read timeout: the
// timeout bounds stalls, not the duration of the whole transfer.
func TestUpload_SlowSourceOutlivesReadTimeout(t *testing.T) {
	us := newUploadServer(t)
	client := newTestClient(t, us.srv.URL)

	// Sixteen chunks paced 30ms apart total roughly half a second of
	// transmission against a 100ms read timeout.
	src := &trickleReader{chunks: 16, size: 1024, pause: 30 * time.Millisecond}

	err := client.Upload(context.Background(), src, "/slow.bin",
		WithTimeout(transport.Timeout{Read: 100 * time.Millisecond}))
	require.NoError(t, err)

	bodies := us.putBodies()
	require.Len(t, bodies, 1)
	assert.Len(t, bodies[0], 16*1024)
}

// Link acquisition retries immediately: the configured interval paces byte
// transfers, and a non-replayable source hands its whole budget to the link
// loop, which must not inherit the pacing.
func TestUpload_LinkRetriesDoNotSleep(t *testing.T) {
	var linkCalls atomic.Int32

	var srvURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, _ *http.Request) {
		if linkCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		fmt.Fprintf(w, `{"href":"%s/upload-target"}`, srvURL)
	})
	mux.HandleFunc("/upload-target", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(t, srv.URL)

	start := time.Now()

	err := client.Upload(context.Background(), io.MultiReader(strings.NewReader("no sleep")), "/ns.bin",
		WithRetries(2), WithRetryInterval(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int32(2), linkCalls.Load())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestUpload_TransferHeaders(t *testing.T) {
	var gotContentType, gotConnection string

	var srvURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"href":"%s/upload-target"}`, srvURL)
	})
	mux.HandleFunc("/upload-target", func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotConnection = r.Header.Get("Connection")
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(t, srv.URL)

	err := client.Upload(context.Background(), bytes.NewReader([]byte("x")), "/h.bin")
	require.NoError(t, err)

	assert.Equal(t, transferContentType, gotContentType)
	assert.Equal(t, "close", gotConnection)
}

func TestUploadByLink(t *testing.T) {
	var puts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		puts.Add(1)
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.UploadByLink(context.Background(), bytes.NewReader([]byte("direct")), srv.URL+"/direct")
	require.NoError(t, err)
	assert.Equal(t, int32(1), puts.Load())
}

func TestUpload_WrongStatusIsClassified(t *testing.T) {
	var srvURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/disk/resources/upload", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"href":"%s/upload-target"}`, srvURL)
	})
	mux.HandleFunc("/upload-target", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInsufficientStorage)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	srvURL = srv.URL

	client := newTestClient(t, srv.URL)

	err := client.Upload(context.Background(), bytes.NewReader([]byte("too big")), "/big.bin")
	require.ErrorIs(t, err, ErrInsufficientStorage)
}

func TestChunkedReader_CapsReadSize(t *testing.T) {
	data := bytes.Repeat([]byte("a"), uploadChunkSize*2+17)
	cr := &chunkedReader{r: bytes.NewReader(data)}

	buf := make([]byte, uploadChunkSize*3)

	n, err := cr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, uploadChunkSize, n)

	total := n
	for {
		n, err = cr.Read(buf)
		total += n

		if err == io.EOF {
			break
		}

		require.NoError(t, err)
		assert.LessOrEqual(t, n, uploadChunkSize)
	}

	assert.Equal(t, len(data), total)
}

package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitoramaral10/local-organizer/internal/llm"
)

func preparedPaths(b *Batch) []string {
	var paths []string
	for _, p := range b.Prepared() {
		paths = append(paths, filepath.Base(p.Path))
	}
	sort.Strings(paths)
	return paths
}

func TestBatchMimeFilter(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "a.txt", []byte("hello"))
	png := writeFile(t, dir, "b.png", []byte{0x89, 'P', 'N', 'G'})

	det := fakeDetector{"a.txt": "text/plain", "b.png": "image/png"}
	client := &stubClient{respond: constant(`{"category":"doc"}`)}
	c := New(client, det, nil, testSettings())
	b := NewBatch(c, det, 0)

	require.NoError(t, b.ClassifyAll(context.Background(), []string{txt, png}, "text"))

	assert.Equal(t, []string{"a.txt"}, preparedPaths(b))
	assert.Equal(t, 1, client.Calls())
	assert.True(t, client.requests[0].ImageURL == "")
}

func TestBatchSkipsPreparedAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("a"))
	b2 := writeFile(t, dir, "b.txt", []byte("b"))

	det := fakeDetector{"a.txt": "text/plain", "b.txt": "text/plain"}
	client := &stubClient{respond: constant("{}")}
	b := NewBatch(New(client, det, nil, testSettings()), det, 2)

	require.NoError(t, b.ClassifyAll(context.Background(), []string{a, a, filepath.Join(dir, "x", "..", "a.txt")}, ""))
	assert.Equal(t, 1, client.Calls())

	require.NoError(t, b.ClassifyAll(context.Background(), []string{a, b2}, ""))
	assert.Equal(t, 2, client.Calls())
	assert.Equal(t, []string{"a.txt", "b.txt"}, preparedPaths(b))
}

func TestBatchReportsPendingAfterFiltering(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("a"))
	b2 := writeFile(t, dir, "b.txt", []byte("b"))
	png := writeFile(t, dir, "c.png", []byte{0x89, 'P', 'N', 'G'})

	det := fakeDetector{"a.txt": "text/plain", "b.txt": "text/plain", "c.png": "image/png"}
	client := &stubClient{respond: constant("{}")}
	b := NewBatch(New(client, det, nil, testSettings()), det, 0)

	var pending []int
	var results atomic.Int32
	b.OnPending = func(n int) { pending = append(pending, n) }
	b.OnResult = func(Result) { results.Add(1) }

	require.NoError(t, b.ClassifyAll(context.Background(), []string{a, a, png}, "text"))
	require.NoError(t, b.ClassifyAll(context.Background(), []string{a, b2, png}, "text"))

	assert.Equal(t, []int{1, 1}, pending)
	assert.Equal(t, int32(2), results.Load())
}

func TestBatchFailuresDoNotAbortSiblings(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", []byte("ok"))
	bad := writeFile(t, dir, "bad.txt", []byte("fail"))
	zip := writeFile(t, dir, "c.zip", []byte("PK"))

	det := fakeDetector{"good.txt": "text/plain", "bad.txt": "text/plain", "c.zip": "application/zip"}
	client := &stubClient{respond: func(_ int, req llm.Request) (string, error) {
		if req.Text == "fail" {
			return "", llm.ErrAuthentication
		}
		return `{"category":"doc"}`, nil
	}}

	var mu sync.Mutex
	kinds := map[string]Kind{}
	b := NewBatch(New(client, det, nil, testSettings()), det, 0)
	b.OnResult = func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		kinds[filepath.Base(r.Path)] = r.Kind
	}

	require.NoError(t, b.ClassifyAll(context.Background(), []string{good, bad, zip}, ""))
	assert.Equal(t, []string{"good.txt"}, preparedPaths(b))
	assert.Equal(t, map[string]Kind{"good.txt": Success, "bad.txt": Failed, "c.zip": Skipped}, kinds)
}

func TestBatchConfigurationError(t *testing.T) {
	client := &stubClient{respond: constant("{}")}
	b := NewBatch(New(client, fakeDetector{}, nil, Settings{Prompt: "p"}), fakeDetector{}, 0)

	err := b.ClassifyAll(context.Background(), []string{"/tmp/a.txt"}, "")
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Zero(t, client.Calls())
}

func TestBatchRespectsWorkerLimit(t *testing.T) {
	dir := t.TempDir()
	det := fakeDetector{}
	var files []string
	for _, name := range []string{"1.txt", "2.txt", "3.txt", "4.txt", "5.txt", "6.txt"} {
		files = append(files, writeFile(t, dir, name, []byte(name)))
		det[name] = "text/plain"
	}

	var inflight, peak atomic.Int32
	client := &stubClient{respond: func(int, llm.Request) (string, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
		return "{}", nil
	}}

	b := NewBatch(New(client, det, nil, testSettings()), det, 2)
	require.NoError(t, b.ClassifyAll(context.Background(), files, ""))

	assert.Len(t, b.Prepared(), len(files))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPreparedFileJSON(t *testing.T) {
	out, err := json.Marshal([]PreparedFile{{Path: "/a.txt", Classification: `{"category":"doc"}`}})
	require.NoError(t, err)
	assert.JSONEq(t, `[["/a.txt","{\"category\":\"doc\"}"]]`, string(out))
}

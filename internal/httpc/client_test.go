package httpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCachesFile(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("weights"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	p, err := Fetch(context.Background(), srv.Client(), srv.URL+"/models/face.onnx", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "face.onnx"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "weights", string(data))

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/models/face.onnx", dir)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dir := t.TempDir()
	_, err := Fetch(context.Background(), srv.Client(), srv.URL+"/missing.onnx", dir)
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(dir, "missing.onnx"))
	assert.True(t, os.IsNotExist(err))

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/", dir)
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/m.onnx"))
	assert.True(t, IsURL("http://example.com/m.onnx"))
	assert.False(t, IsURL("/models/m.onnx"))
}

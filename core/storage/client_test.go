package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"roster-verifier/core/storage"
	"roster-verifier/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Client = (*mocks.Client)(nil)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		timeout  int
	}{
		{name: "Bare Host", endpoint: "localhost:9000", timeout: 30},
		{name: "HTTP Scheme", endpoint: "http://localhost:9000", timeout: 30},
		{name: "HTTPS Scheme", endpoint: "https://s3.amazonaws.com", useSSL: true, timeout: 30},
		{name: "Zero Timeout", endpoint: "localhost:9000", timeout: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(storage.Config{
				Endpoint:       tt.endpoint,
				AccessKey:      "roster",
				SecretKey:      "roster-secret",
				UseSSL:         tt.useSSL,
				Bucket:         "rosters",
				Region:         "us-east-1",
				TimeoutSeconds: tt.timeout,
			})
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}

	t.Run("Endpoint With Path", func(t *testing.T) {
		_, err := storage.NewClient(storage.Config{Endpoint: "localhost:9000/rosters"})
		assert.Error(t, err)
	})
}

// fakeBucketServer serves a single bucket holding one roster snapshot.
func fakeBucketServer(t *testing.T, bucket, key, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + bucket, "/" + bucket + "/":
			w.WriteHeader(http.StatusOK)
		case "/" + bucket + "/" + key:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.Header().Set("Last-Modified", time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC).Format(http.TimeFormat))
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			if r.Method != http.MethodHead {
				_, _ = io.WriteString(w, body)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_AgainstServer(t *testing.T) {
	ctx := context.Background()
	srv := fakeBucketServer(t, "rosters", "rosters/1/east/job-1.json", `{"records":[]}`)

	client, err := storage.NewClient(storage.Config{
		Endpoint:       srv.URL,
		AccessKey:      "roster",
		SecretKey:      "roster-secret",
		Region:         "us-east-1",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)

	exists, err := client.BucketExists(ctx, "rosters")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.BucketExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	obj, err := client.GetObject(ctx, "rosters", "rosters/1/east/job-1.json", minio.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()
	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"records":[]}`, string(data))
}

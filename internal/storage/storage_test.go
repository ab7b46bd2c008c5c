package storage

import (
	"testing"

	"github.com/andresuchdata/dialfa-analytics/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio:9000", false, "minio:9000", false},
		{"//files.example.com", true, "files.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, secure := normalizeEndpoint(tt.in, tt.useSSL)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNewMinioClientValidates(t *testing.T) {
	_, err := NewMinioClient(config.StorageConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	client, err := NewMinioClient(config.StorageConfig{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "exports"})
	require.NoError(t, err)
	assert.Equal(t, "exports", client.bucket)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(secret, []byte("s3cr3t\n"), 0o600))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "admin", want: "admin"},
		{name: "file", input: "file://" + secret, want: "s3cr3t"},
		{name: "missing file", input: "file:///nonexistent/password", wantErr: true},
		{name: "base64", input: "base64://dG9rZW4=", want: "token"},
		{name: "invalid base64", input: "base64://%%%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFolders(t *testing.T) {
	assert.Equal(t, []string{"team", "infra", "ops"}, Folders([]string{"team, infra", " ", "ops,"}))
	assert.Empty(t, Folders(nil))
}

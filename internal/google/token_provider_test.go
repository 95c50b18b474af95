package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyJSON(t *testing.T, tokenURL string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"client_email":   "booker@project.iam.gserviceaccount.com",
		"private_key_id": "0123456789abcdef",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"token_uri":      tokenURL,
	})
	require.NoError(t, err)
	return string(data)
}

func TestNewServiceAccountProvider_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServiceAccountConfig
	}{
		{"nothing configured", ServiceAccountConfig{}},
		{"missing file", ServiceAccountConfig{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}},
		{"not json", ServiceAccountConfig{CredentialsJSON: "not json"}},
		{"user credentials", ServiceAccountConfig{CredentialsJSON: `{"type":"authorized_user","client_id":"x"}`}},
		{"incomplete key", ServiceAccountConfig{CredentialsJSON: `{"type":"service_account"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewServiceAccountProvider(tt.cfg, nil)
			assert.Error(t, err)
		})
	}

	_, err := NewServiceAccountProvider(ServiceAccountConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestServiceAccountProvider_LazyCachedToken(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.test","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(testKeyJSON(t, srv.URL)), 0o600))

	p, err := NewServiceAccountProvider(ServiceAccountConfig{CredentialsFile: path}, nil)
	require.NoError(t, err)

	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), hits.Load(), "no token fetched before first use")

	require.NoError(t, Check(ts))
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "ya29.test", tok.AccessToken)
	assert.Equal(t, int32(1), hits.Load(), "token is reused until expiry")
}

func TestServiceAccountProvider_TokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewServiceAccountProvider(ServiceAccountConfig{CredentialsJSON: testKeyJSON(t, srv.URL)}, nil)
	require.NoError(t, err)

	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)
	assert.Error(t, Check(ts))
}

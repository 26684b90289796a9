package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCredentials_HTTPClient(t *testing.T) {
	creds := Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"}

	client := creds.HTTPClient(context.Background())
	require.NotNil(t, client)

	transport, ok := client.Transport.(*oauth2.Transport)
	require.True(t, ok, "requests should go through the refreshing transport")
	assert.NotNil(t, transport.Source)
}

func TestDecodeBase64URL(t *testing.T) {
	t.Run("unpadded", func(t *testing.T) {
		out, err := decodeBase64URL("aGVsbG8")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(out))
	})

	t.Run("padded", func(t *testing.T) {
		out, err := decodeBase64URL("aGVsbG8=")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(out))
	})
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAzureConnectionStringAccountAndKey(t *testing.T) {
	info, err := parseAzureConnectionString("AccountName=cachegate;AccountKey=secret")
	require.NoError(t, err)

	assert.Equal(t, "cachegate", info.Account)
	assert.Equal(t, "secret", info.Key)
	assert.Equal(t, "", info.Endpoint)
}

func TestParseAzureConnectionStringPreservesEqualsInKey(t *testing.T) {
	info, err := parseAzureConnectionString("AccountName=cachegate;AccountKey=abc==")
	require.NoError(t, err)

	assert.Equal(t, "abc==", info.Key)
}

func TestParseAzureConnectionStringBlobEndpoint(t *testing.T) {
	info, err := parseAzureConnectionString(
		"AccountName=devstoreaccount1;AccountKey=abc;BlobEndpoint=http://localhost:10000/devstoreaccount1;")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:10000/devstoreaccount1", info.Endpoint)
}

func TestParseAzureConnectionStringBuildsEndpointFromSuffix(t *testing.T) {
	info, err := parseAzureConnectionString(
		"DefaultEndpointsProtocol=http;AccountName=cachegate;AccountKey=secret;EndpointSuffix=core.windows.net")
	require.NoError(t, err)

	assert.Equal(t, "http://cachegate.blob.core.windows.net", info.Endpoint)
}

func TestParseAzureConnectionStringMissingAccount(t *testing.T) {
	_, err := parseAzureConnectionString("AccountKey=secret")
	assert.Error(t, err)
}

func TestParseAzureConnectionStringMissingKey(t *testing.T) {
	_, err := parseAzureConnectionString("AccountName=cachegate")
	assert.Error(t, err)
}

package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFTPURL(t *testing.T) {
	host, path, err := parseFTPURL("ftp://ftp.vendor.com/exports/prices.csv")
	require.NoError(t, err)
	assert.Equal(t, "ftp.vendor.com:21", host)
	assert.Equal(t, "/exports/prices.csv", path)
}

func TestParseFTPURL_ExplicitPort(t *testing.T) {
	host, _, err := parseFTPURL("ftp://ftp.vendor.com:2121/prices.csv")
	require.NoError(t, err)
	assert.Equal(t, "ftp.vendor.com:2121", host)
}

func TestParseFTPURL_WrongScheme(t *testing.T) {
	_, _, err := parseFTPURL("https://vendor.com/prices.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected ftp scheme")
}

func TestParseFTPURL_EmptyPath(t *testing.T) {
	_, _, err := parseFTPURL("ftp://ftp.vendor.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty path")
}

func TestNewFTPFetcher_Defaults(t *testing.T) {
	f := NewFTPFetcher(FTPOptions{})
	assert.Equal(t, 30*time.Second, f.opts.Timeout)
	assert.Equal(t, "anonymous", f.opts.User)

	f = NewFTPFetcher(FTPOptions{User: "acct123", Password: "secret"})
	assert.Equal(t, "acct123", f.opts.User)
}

package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sinkhole/internal/testutil"
	"sinkhole/pkg/adlist"
)

func TestReadWhitelist(t *testing.T) {
	w, err := ReadWhitelist(strings.NewReader("\ufeffexample.com\n# comment\n\n  ads.example  \r\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, w.Len())
	assert.True(t, w.Contains("example.com"))
	assert.True(t, w.Contains("ads.example"))
	assert.False(t, w.Contains("sub.example.com"))
	assert.False(t, w.Contains("EXAMPLE.COM"))
}

func TestLoadWhitelistFile(t *testing.T) {
	path := testutil.WriteTempFile(t, t.TempDir(), "whitelist.txt", "example.com\n")

	w, err := LoadWhitelistFile(path, testutil.DiscardLogger())
	require.NoError(t, err)
	assert.True(t, w.Contains("example.com"))

	w, err = LoadWhitelistFile("", nil)
	require.NoError(t, err)
	assert.Zero(t, w.Len())

	_, err = LoadWhitelistFile(filepath.Join(t.TempDir(), "missing.txt"), testutil.DiscardLogger())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWhitelistMerge(t *testing.T) {
	w := NewWhitelist("a.example", "")
	w.Merge(NewWhitelist("b.example"))
	w.Merge(nil)

	assert.Equal(t, 2, w.Len())
	assert.True(t, w.Contains("b.example"))

	var nilList *Whitelist
	assert.False(t, nilList.Contains("a.example"))
	assert.Zero(t, nilList.Len())
}

func TestBuilder(t *testing.T) {
	a := adlist.MustNew("file:///tmp/list.txt", adlist.FormatDomains)

	b := NewBuilder().AddAdlist(a).AddWhitelist("example.com")
	p := b.Build()

	assert.Equal(t, DefaultHTTPTimeout, p.HTTPTimeout())
	assert.Equal(t, []adlist.Adlist{a}, p.Adlists())
	assert.Empty(t, p.Outputs())
	assert.True(t, p.Whitelist().Contains("example.com"))

	b.AddAdlist(a).AddWhitelist("example.org").SetHTTPTimeout(time.Second)
	assert.Len(t, p.Adlists(), 1)
	assert.False(t, p.Whitelist().Contains("example.org"))
	assert.Equal(t, time.Second, b.Build().HTTPTimeout())
}

package core

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewyi/streamcrawler/src/store"
)

func TestCreateSeedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	require.NoError(t, ioutil.WriteFile(path, []byte("http://a.test/1\n\n  https://a.test/2  \nftp://a.test/3\nhttp://a.test/1#dup\n"), 0644))

	frontier := store.NewFrontier(nil)
	n, err := CreateSeedRecord(testLogger(), frontier, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"http://a.test/1", "https://a.test/2"}, frontier.Items())

	_, err = CreateSeedRecord(testLogger(), frontier, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	require.NoError(t, ioutil.WriteFile(path, []byte("BNT\nnova\n\nIPTV\n"), 0644))

	keywords, err := LoadKeywords(path, []string{"iptv", "Live"})
	require.NoError(t, err)
	assert.Equal(t, []string{"iptv", "live", "bnt", "nova"}, keywords)

	keywords, err = LoadKeywords(filepath.Join(t.TempDir(), "missing.txt"), []string{"tv"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tv"}, keywords)

	assert.True(t, Interesting("http://a.test/anything", nil))
	assert.True(t, Interesting("http://a.test/BNT-channels.html", []string{"bnt"}))
	assert.True(t, Interesting("http://a.test/list.m3u8", []string{"bnt"}))
	assert.True(t, Interesting("http://a.test/sitemap.xml", []string{"bnt"}))
	assert.False(t, Interesting("http://a.test/about.html", []string{"bnt"}))
}

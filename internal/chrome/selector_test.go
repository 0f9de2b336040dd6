package chrome_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nunley-Media-Group/chrome-cli/internal/chrome"
)

func makeTarget(id, targetType string) chrome.TargetInfo {
	return chrome.TargetInfo{
		ID:    id,
		Type:  targetType,
		Title: "Title " + id,
		URL:   "https://example.com/" + id,
	}
}

func TestSelectTargetDefaultPicksFirstPage(t *testing.T) {
	t.Parallel()

	targets := []chrome.TargetInfo{
		makeTarget("bg1", "background_page"),
		makeTarget("page1", "page"),
		makeTarget("page2", "page"),
	}
	result, err := chrome.SelectTarget(targets, "")
	require.NoError(t, err)
	assert.Equal(t, "page1", result.ID)
}

func TestSelectTargetByIndex(t *testing.T) {
	t.Parallel()

	targets := []chrome.TargetInfo{
		makeTarget("a", "page"),
		makeTarget("b", "page"),
		makeTarget("c", "page"),
	}
	result, err := chrome.SelectTarget(targets, "1")
	require.NoError(t, err)
	assert.Equal(t, "b", result.ID)
}

func TestSelectTargetByID(t *testing.T) {
	t.Parallel()

	targets := []chrome.TargetInfo{makeTarget("ABCDEF", "page"), makeTarget("GHIJKL", "page")}
	result, err := chrome.SelectTarget(targets, "GHIJKL")
	require.NoError(t, err)
	assert.Equal(t, "GHIJKL", result.ID)
}

func TestSelectTargetInvalidTab(t *testing.T) {
	t.Parallel()

	targets := []chrome.TargetInfo{makeTarget("a", "page")}
	_, err := chrome.SelectTarget(targets, "nonexistent")
	require.Error(t, err)
	var chromeErr *chrome.Error
	require.ErrorAs(t, err, &chromeErr)
	assert.Equal(t, chrome.KindTargetNotFound, chromeErr.Kind)
}

func TestSelectTargetIndexOutOfBounds(t *testing.T) {
	t.Parallel()

	targets := []chrome.TargetInfo{makeTarget("a", "page")}
	_, err := chrome.SelectTarget(targets, "5")
	assert.Error(t, err)
}

func TestSelectTargetEmptyListNoTab(t *testing.T) {
	t.Parallel()

	_, err := chrome.SelectTarget(nil, "")
	require.Error(t, err)
	var chromeErr *chrome.Error
	require.ErrorAs(t, err, &chromeErr)
	assert.Equal(t, chrome.KindNoPageTargets, chromeErr.Kind)
}

func TestSelectTargetNoPageTargets(t *testing.T) {
	t.Parallel()

	targets := []chrome.TargetInfo{
		makeTarget("sw1", "service_worker"),
		makeTarget("bg1", "background_page"),
	}
	_, err := chrome.SelectTarget(targets, "")
	assert.Error(t, err)
}

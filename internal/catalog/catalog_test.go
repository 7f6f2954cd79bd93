package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ListOrder(t *testing.T) {
	c := Default()
	items := c.List()
	require.Len(t, items, 3)

	ids := []string{items[0].ID, items[1].ID, items[2].ID}
	assert.Equal(t, []string{"github-1", "discord-1", "slack-1"}, ids)

	for _, item := range items {
		assert.Equal(t, StatusDisconnected, item.Status)
		assert.False(t, item.Connected)
	}

	// Stable across reads
	assert.Equal(t, items, c.List())
}

func TestList_ReturnsCopy(t *testing.T) {
	c := Default()
	items := c.List()
	items[0].Status = StatusActive

	got, ok := c.FindByID("github-1")
	require.True(t, ok)
	assert.Equal(t, StatusDisconnected, got.Status)
}

func TestFindByID(t *testing.T) {
	c := Default()

	got, ok := c.FindByID("slack-1")
	require.True(t, ok)
	assert.Equal(t, "Slack", got.Name)
	assert.False(t, got.SupportsOAuth())

	_, ok = c.FindByID("missing")
	assert.False(t, ok)
}

func TestUpdateStatus_IdempotentByProvider(t *testing.T) {
	c := Default()

	assert.Equal(t, 1, c.UpdateStatus(ByProvider(ProviderGitHub), StatusActive))
	assert.Equal(t, 1, c.UpdateStatus(ByProvider(ProviderGitHub), StatusActive))

	matches := 0
	for _, item := range c.List() {
		if item.Provider == ProviderGitHub {
			matches++
			assert.Equal(t, StatusActive, item.Status)
			assert.True(t, item.Connected)
			continue
		}
		assert.Equal(t, StatusDisconnected, item.Status)
		assert.False(t, item.Connected)
	}
	assert.Equal(t, 1, matches)
}

func TestUpdateStatus_ByName(t *testing.T) {
	c := Default()

	c.UpdateStatus(ByName("GitHub"), StatusActive)
	c.UpdateStatus(ByName("GitHub"), StatusActive)

	got, _ := c.FindByID("github-1")
	assert.Equal(t, StatusActive, got.Status)
	assert.True(t, got.Connected)

	other, _ := c.FindByID("discord-1")
	assert.Equal(t, StatusDisconnected, other.Status)
}

func TestUpdateStatus_ZeroMatches(t *testing.T) {
	c := Default()
	before := c.List()

	assert.Equal(t, 0, c.UpdateStatus(ByName("github"), StatusActive))
	assert.Equal(t, before, c.List())
}

func TestUpdateStatus_ManyMatches(t *testing.T) {
	c := New([]Integration{
		{ID: "gh-a", Name: "GitHub", Provider: ProviderGitHub},
		{ID: "gh-b", Name: "GitHub Enterprise", Provider: ProviderGitHub},
		{ID: "slack-1", Name: "Slack"},
	})

	assert.Equal(t, 2, c.UpdateStatus(ByProvider(ProviderGitHub), StatusActive))
	for _, item := range c.List() {
		assert.Equal(t, item.Status == StatusActive, item.Connected)
	}
}

func TestUpdateStatus_ConnectedFollowsStatus(t *testing.T) {
	c := Default()

	c.UpdateStatus(ByID("github-1"), StatusActive)
	c.UpdateStatus(ByID("github-1"), StatusPending)

	got, _ := c.FindByID("github-1")
	assert.Equal(t, StatusPending, got.Status)
	assert.False(t, got.Connected)
}

func TestNew_NormalizesSeed(t *testing.T) {
	c := New([]Integration{
		{ID: "a", Status: StatusActive},
		{ID: "b", Status: "bogus", Connected: true},
	})

	a, _ := c.FindByID("a")
	assert.True(t, a.Connected)

	b, _ := c.FindByID("b")
	assert.Equal(t, StatusDisconnected, b.Status)
	assert.False(t, b.Connected)
}

func TestReset(t *testing.T) {
	c := Default()
	c.UpdateStatus(ByProvider(ProviderGitHub), StatusActive)
	c.Reset()

	got, _ := c.FindByID("github-1")
	assert.Equal(t, StatusDisconnected, got.Status)
	assert.False(t, got.Connected)
}

func TestProvider(t *testing.T) {
	assert.True(t, ProviderGitHub.SupportsOAuth())
	assert.False(t, ProviderNone.SupportsOAuth())
	assert.Equal(t, "none", ProviderNone.String())
	assert.Equal(t, "github", ProviderGitHub.String())
}

package playout

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/storage"
)

func countBy(items []Item) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.CreativeID]++
	}
	return counts
}

func TestExpandRepeatsByWeight(t *testing.T) {
	eligible := []Eligible{
		{CreativeID: "C1", Weight: 1, Shares: []FlightShare{{FlightID: "F1", Weight: 1}}},
		{CreativeID: "C3", Weight: 5, Shares: []FlightShare{{FlightID: "F1", Weight: 2}, {FlightID: "F2", Weight: 3}}},
		{CreativeID: "C0", Weight: 0, Shares: []FlightShare{{FlightID: "F1", Weight: 0}}},
	}

	items := Expand(eligible)
	require.Len(t, items, 6)
	assert.Equal(t, map[string]int{"C1": 1, "C3": 5}, countBy(items))

	flights := map[string]int{}
	for _, item := range items {
		if item.CreativeID == "C3" {
			flights[item.FlightID]++
		}
	}
	assert.Equal(t, map[string]int{"F1": 2, "F2": 3}, flights)
}

func TestBuildPlaylistShufflesWithoutChangingComposition(t *testing.T) {
	eligible := []Eligible{
		{CreativeID: "A", Weight: 3, Shares: []FlightShare{{FlightID: "F1", Weight: 3}}},
		{CreativeID: "B", Weight: 2, Shares: []FlightShare{{FlightID: "F1", Weight: 2}}},
		{CreativeID: "C", Weight: 4, Shares: []FlightShare{{FlightID: "F2", Weight: 4}}},
	}

	expanded := Expand(eligible)
	shuffled := BuildPlaylist(eligible, nil, rand.New(rand.NewPCG(1, 2)))

	assert.Equal(t, countBy(expanded), countBy(shuffled))
	assert.ElementsMatch(t, expanded, shuffled)
}

func TestBuildPlaylistIsDeterministicForSeed(t *testing.T) {
	eligible := []Eligible{
		{CreativeID: "A", Weight: 5, Shares: []FlightShare{{FlightID: "F1", Weight: 5}}},
		{CreativeID: "B", Weight: 5, Shares: []FlightShare{{FlightID: "F1", Weight: 5}}},
	}

	first := BuildPlaylist(eligible, nil, rand.New(rand.NewPCG(7, 7)))
	second := BuildPlaylist(eligible, nil, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, first, second)
}

func TestBuildPlaylistFallback(t *testing.T) {
	fallback := &storage.ApprovedCreative{
		CreativeID:      "C2",
		CampaignID:      "camp-a",
		FileURL:         "c2.mp4",
		DurationSeconds: 10,
	}

	items := BuildPlaylist(nil, fallback, nil)
	require.Len(t, items, 1)
	assert.Equal(t, Item{
		CreativeID:      "C2",
		CampaignID:      "camp-a",
		FlightID:        "00000000-0000-0000-0000-000000000000",
		FileURL:         "c2.mp4",
		DurationSeconds: 10,
	}, items[0])
}

func TestBuildPlaylistEmpty(t *testing.T) {
	items := BuildPlaylist(nil, nil, nil)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

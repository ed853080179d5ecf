package playout

import (
	"math/rand/v2"

	"playout-engine/internal/storage"
)

type Item struct {
	CreativeID      string `json:"creative_id"`
	CampaignID      string `json:"campaign_id"`
	FlightID        string `json:"flight_id"`
	FileURL         string `json:"file_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type defaultShuffler struct{}

func (defaultShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Expand repeats every eligible creative once per unit of weight. Each copy
// carries the flight that contributed it.
func Expand(eligible []Eligible) []Item {
	var items []Item
	for _, e := range eligible {
		for _, share := range e.Shares {
			for n := 0; n < share.Weight; n++ {
				items = append(items, Item{
					CreativeID:      e.CreativeID,
					CampaignID:      e.CampaignID,
					FlightID:        share.FlightID,
					FileURL:         e.FileURL,
					DurationSeconds: e.DurationSeconds,
				})
			}
		}
	}
	return items
}

// BuildPlaylist expands and shuffles the eligible creatives. An empty
// expansion falls back to the given creative under FallbackFlightID, or to an
// empty playlist when fallback is nil.
func BuildPlaylist(eligible []Eligible, fallback *storage.ApprovedCreative, shuffler Shuffler) []Item {
	items := Expand(eligible)
	if len(items) == 0 {
		if fallback == nil {
			return []Item{}
		}
		return []Item{{
			CreativeID:      fallback.CreativeID,
			CampaignID:      fallback.CampaignID,
			FlightID:        FallbackFlightID,
			FileURL:         fallback.FileURL,
			DurationSeconds: fallback.DurationSeconds,
		}}
	}

	if shuffler == nil {
		shuffler = defaultShuffler{}
	}
	shuffler.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	return items
}

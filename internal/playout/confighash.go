package playout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// ConfigHashLength is the number of hex characters kept from the digest.
const ConfigHashLength = 16

type hashEntry struct {
	CreativeID string `json:"creative_id"`
	FlightID   string `json:"flight_id"`
	Count      int    `json:"count"`
}

type hashPayload struct {
	ScreenID string      `json:"screen_id"`
	Region   string      `json:"region"`
	City     string      `json:"city"`
	Entries  []hashEntry `json:"entries"`
}

// ConfigHash fingerprints the playlist composition. Play order does not
// affect the result.
func ConfigHash(screenID, region, city string, items []Item) string {
	counts := make(map[[2]string]int)
	for _, item := range items {
		counts[[2]string{item.CreativeID, item.FlightID}]++
	}

	entries := make([]hashEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, hashEntry{CreativeID: key[0], FlightID: key[1], Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreativeID != entries[j].CreativeID {
			return entries[i].CreativeID < entries[j].CreativeID
		}
		return entries[i].FlightID < entries[j].FlightID
	})

	payload, err := json.Marshal(hashPayload{
		ScreenID: screenID,
		Region:   region,
		City:     city,
		Entries:  entries,
	})
	if err != nil {
		// Marshalling plain strings and ints cannot fail.
		panic(err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:ConfigHashLength]
}

// ClientFingerprint extracts the config hash a client presented, either as an
// entity tag in If-None-Match or verbatim in X-Config-Hash.
func ClientFingerprint(ifNoneMatch, configHash string) string {
	if tag := strings.TrimSpace(ifNoneMatch); tag != "" {
		// Only the first tag of a list is considered.
		if i := strings.IndexByte(tag, ','); i >= 0 {
			tag = strings.TrimSpace(tag[:i])
		}
		tag = strings.TrimPrefix(tag, "W/")
		return strings.Trim(tag, `"`)
	}
	return strings.TrimSpace(configHash)
}

// ETag formats a config hash as a strong entity tag.
func ETag(hash string) string {
	return `"` + hash + `"`
}

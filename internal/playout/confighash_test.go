package playout

import (
	"math/rand/v2"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexHash = regexp.MustCompile(`^[0-9a-f]{16}$`)

// reverseShuffler reverses the slice so the order always differs from expansion order.
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestConfigHashFormat(t *testing.T) {
	hash := ConfigHash("screen-1", "NG", "Lagos", nil)
	assert.Regexp(t, hexHash, hash)
}

func TestConfigHashStableUnderReshuffle(t *testing.T) {
	eligible := []Eligible{
		{CreativeID: "A", Weight: 3, Shares: []FlightShare{{FlightID: "F1", Weight: 3}}},
		{CreativeID: "B", Weight: 5, Shares: []FlightShare{{FlightID: "F1", Weight: 2}, {FlightID: "F2", Weight: 3}}},
	}

	first := BuildPlaylist(eligible, nil, reverseShuffler{})
	second := BuildPlaylist(eligible, nil, rand.New(rand.NewPCG(99, 3)))
	assert.NotEqual(t, Expand(eligible), first)

	assert.Equal(t,
		ConfigHash("screen-1", "NG", "Lagos", first),
		ConfigHash("screen-1", "NG", "Lagos", second))
}

func TestConfigHashChangesWithComposition(t *testing.T) {
	base := []Item{
		{CreativeID: "A", FlightID: "F1"},
		{CreativeID: "A", FlightID: "F1"},
		{CreativeID: "B", FlightID: "F2"},
	}
	hash := ConfigHash("screen-1", "NG", "Lagos", base)

	changes := map[string][]Item{
		"count": {
			{CreativeID: "A", FlightID: "F1"},
			{CreativeID: "B", FlightID: "F2"},
		},
		"flight": {
			{CreativeID: "A", FlightID: "F1"},
			{CreativeID: "A", FlightID: "F3"},
			{CreativeID: "B", FlightID: "F2"},
		},
		"creative": {
			{CreativeID: "A", FlightID: "F1"},
			{CreativeID: "A", FlightID: "F1"},
			{CreativeID: "C", FlightID: "F2"},
		},
	}
	for name, items := range changes {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, hash, ConfigHash("screen-1", "NG", "Lagos", items))
		})
	}

	assert.NotEqual(t, hash, ConfigHash("screen-2", "NG", "Lagos", base))
	assert.NotEqual(t, hash, ConfigHash("screen-1", "GH", "Lagos", base))
	assert.NotEqual(t, hash, ConfigHash("screen-1", "NG", "Abuja", base))
}

func TestClientFingerprint(t *testing.T) {
	tests := []struct {
		name        string
		ifNoneMatch string
		configHash  string
		want        string
	}{
		{"none", "", "", ""},
		{"quoted etag", `"abcdef0123456789"`, "", "abcdef0123456789"},
		{"weak etag", `W/"abcdef0123456789"`, "", "abcdef0123456789"},
		{"bare etag", "abcdef0123456789", "", "abcdef0123456789"},
		{"etag list", `"aaaa", "bbbb"`, "", "aaaa"},
		{"config hash header", "", " abcdef0123456789 ", "abcdef0123456789"},
		{"etag wins", `"aaaa"`, "bbbb", "aaaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientFingerprint(tt.ifNoneMatch, tt.configHash))
		})
	}
}

func TestETag(t *testing.T) {
	assert.Equal(t, `"abc"`, ETag("abc"))
	assert.Equal(t, "abc", ClientFingerprint(ETag("abc"), ""))
}

package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playout-engine/internal/approval"
	"playout-engine/internal/playout"
	"playout-engine/internal/storage"
	"playout-engine/internal/storage/storagetest"
)

var seedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestApplyNetworkFixture(t *testing.T) {
	provider := storagetest.NewSQLite(t)
	ctx := context.Background()

	fixture, err := LoadFile("testdata/network.yaml")
	require.NoError(t, err)

	summary, err := Apply(ctx, provider, fixture, seedTime)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Regions: 2, Screens: 3, Groups: 1, Campaigns: 1, Creatives: 2, Flights: 1, Approvals: 1}, summary)

	approvals, err := approval.NewService(provider).List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, approvals, 3)

	pending, err := approval.NewService(provider).List(ctx, storage.ApprovalStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	engine := playout.NewEngine(provider, playout.WithClock(func() time.Time { return seedTime }))
	result, err := engine.ResolveScreen(ctx, "scr-bus-1")
	require.NoError(t, err)
	assert.False(t, result.Fallback)
	require.Len(t, result.Playlist, 2)
	for _, item := range result.Playlist {
		assert.Equal(t, "cr-soda-15", item.CreativeID)
		assert.Equal(t, "fl-lagos", item.FlightID)
	}
}

func TestApplyRollsBackOnInvalidApproval(t *testing.T) {
	provider := storagetest.NewSQLite(t)
	ctx := context.Background()

	fixture, err := Parse(strings.NewReader(`
regions:
  - code: NG-LA
    requires_pre_approval: true
campaigns:
  - id: cmp-1
    creatives:
      - id: cr-1
        file_url: a.mp4
        duration_seconds: 10
approvals:
  - creative: cr-1
    region: NG-LA
    status: approved
`))
	require.NoError(t, err)

	_, err = Apply(ctx, provider, fixture, seedTime)
	assert.ErrorIs(t, err, approval.ErrApprovalCodeRequired)

	require.NoError(t, provider.WithTx(ctx, func(tx storage.Tx) error {
		regions, err := tx.ListRegions(ctx)
		assert.Empty(t, regions)
		return err
	}))
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("screenz: []\n"))
	assert.Error(t, err)

	fixture, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fixture.Regions)
}

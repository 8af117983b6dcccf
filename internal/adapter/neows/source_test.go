package neows

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/couchcryptid/impact-sim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedFixture mirrors the shape of a real /feed response, trimmed to the
// fields the simulator reads.
const feedFixture = `{
  "element_count": 4,
  "near_earth_objects": {
    "2025-10-05": [
      {
        "id": "3542519",
        "name": "(2010 PK9)",
        "estimated_diameter": {"kilometers": {"estimated_diameter_min": 0.12, "estimated_diameter_max": 0.27}},
        "close_approach_data": [{
          "close_approach_date": "2025-10-05",
          "relative_velocity": {"kilometers_per_second": "12.8"},
          "miss_distance": {"kilometers": "4500000.1"}
        }]
      },
      {
        "id": "2099942",
        "name": "99942 Apophis (2004 MN4)",
        "estimated_diameter": {"kilometers": {"estimated_diameter_min": 0.31, "estimated_diameter_max": 0.37}},
        "close_approach_data": [{
          "close_approach_date": "2025-10-05",
          "relative_velocity": {"kilometers_per_second": "7.4"},
          "miss_distance": {"kilometers": "38000"}
        }]
      }
    ],
    "2025-10-04": [
      {
        "id": "54016474",
        "name": "(2020 GE)",
        "estimated_diameter": {"kilometers": {"estimated_diameter_min": 0.0, "estimated_diameter_max": 0.0}},
        "close_approach_data": [{
          "close_approach_date": "2025-10-04",
          "relative_velocity": {"kilometers_per_second": "n/a"},
          "miss_distance": {"kilometers": "900000"}
        }]
      },
      {
        "id": "3000001",
        "name": "(1999 XX)",
        "estimated_diameter": {"kilometers": {"estimated_diameter_min": 1.0, "estimated_diameter_max": 2.0}},
        "close_approach_data": []
      }
    ]
  }
}`

type staticFeed struct {
	feed Feed
	err  error
}

func (s staticFeed) Feed(_ context.Context, _, _ string) (Feed, error) {
	return s.feed, s.err
}

func fixtureSource(t *testing.T) *Source {
	t.Helper()
	var feed Feed
	require.NoError(t, json.Unmarshal([]byte(feedFixture), &feed))
	return NewSource(staticFeed{feed: feed}, "2025-10-04", "2025-10-05")
}

func TestSource_FetchCatalog_OrderedByMissDistance(t *testing.T) {
	entries, err := fixtureSource(t).FetchCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.CatalogEntry{
		{ID: "2099942", Name: "99942 Apophis (2004 MN4)"},
		{ID: "54016474", Name: "(2020 GE)"},
		{ID: "3542519", Name: "(2010 PK9)"},
		{ID: "3000001", Name: "(1999 XX)"},
	}, entries)
}

func TestSource_FetchDetails(t *testing.T) {
	details, err := fixtureSource(t).FetchDetails(context.Background())
	require.NoError(t, err)

	byID := make(map[string]domain.DetailRecord)
	for _, d := range details {
		byID[d.ID] = d
	}

	assert.NotContains(t, byID, "3000001", "objects without close approach data carry no details")

	apophis := byID["2099942"]
	require.NotNil(t, apophis.Date)
	assert.Equal(t, "2025-10-05", *apophis.Date)
	require.NotNil(t, apophis.DiameterKm)
	assert.InDelta(t, 0.37, *apophis.DiameterKm, 1e-9)
	require.NotNil(t, apophis.VelocityKms)
	assert.InDelta(t, 7.4, *apophis.VelocityKms, 1e-9)

	ge := byID["54016474"]
	require.NotNil(t, ge.Date)
	assert.Nil(t, ge.DiameterKm, "zero diameter is treated as unknown")
	assert.Nil(t, ge.VelocityKms, "unparsable velocity is dropped")
}

func TestSource_MergedCatalogFallsBackToDefaults(t *testing.T) {
	src := fixtureSource(t)
	entries, err := src.FetchCatalog(context.Background())
	require.NoError(t, err)
	details, err := src.FetchDetails(context.Background())
	require.NoError(t, err)

	merged := domain.MergeCatalog(entries, details)
	ge, ok := domain.FindAsteroid(merged, "54016474")
	require.True(t, ok)

	assert.Equal(t, domain.ImpactRequest{DiameterKm: 1, VelocityKms: 20, Angle: 45}, domain.NewImpactRequest(ge))
}

func TestSource_DeduplicatesRepeatSightings(t *testing.T) {
	neo := NearEarthObject{ID: "2099942", Name: "Apophis"}
	feed := Feed{NearEarthObjects: map[string][]NearEarthObject{
		"2025-10-04": {neo},
		"2025-10-05": {neo},
	}}

	entries, err := NewSource(staticFeed{feed: feed}, "2025-10-04", "2025-10-05").FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSource_PropagatesFeedError(t *testing.T) {
	src := NewSource(staticFeed{err: errors.New("neows API error: status 429")}, "2025-10-04", "2025-10-05")

	_, err := src.FetchCatalog(context.Background())
	require.Error(t, err)
	_, err = src.FetchDetails(context.Background())
	require.Error(t, err)
}

package neows

import (
	"context"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/impact-sim/internal/domain"
)

// Source derives the asteroid catalog and its detail records from one NeoWs
// feed window. It implements domain.CatalogSource and domain.DetailSource.
// Wrap the fetcher in a CachedFeed so both calls share one upstream request.
type Source struct {
	feeds     FeedFetcher
	startDate string
	endDate   string
}

// NewSource creates a Source over the given date window.
func NewSource(feeds FeedFetcher, startDate, endDate string) *Source {
	return &Source{feeds: feeds, startDate: startDate, endDate: endDate}
}

// FetchCatalog lists every object in the window, nearest miss distance first.
// Objects that approach on several dates are listed once.
func (s *Source) FetchCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	feed, err := s.feeds.Feed(ctx, s.startDate, s.endDate)
	if err != nil {
		return nil, err
	}

	objects := flatten(feed)
	sort.SliceStable(objects, func(i, j int) bool {
		return missDistanceKm(objects[i].neo) < missDistanceKm(objects[j].neo)
	})

	entries := make([]domain.CatalogEntry, 0, len(objects))
	for _, o := range objects {
		entries = append(entries, domain.CatalogEntry{ID: o.neo.ID, Name: o.neo.Name})
	}
	return entries, nil
}

// FetchDetails returns one record per object that has close-approach data.
// The date is the feed day the object is listed under; unparsable or
// non-positive measurements are left out of the record.
func (s *Source) FetchDetails(ctx context.Context) ([]domain.DetailRecord, error) {
	feed, err := s.feeds.Feed(ctx, s.startDate, s.endDate)
	if err != nil {
		return nil, err
	}

	objects := flatten(feed)
	details := make([]domain.DetailRecord, 0, len(objects))
	for _, o := range objects {
		if len(o.neo.CloseApproachData) == 0 {
			continue
		}
		rec := domain.DetailRecord{ID: o.neo.ID}
		date := o.date
		rec.Date = &date
		if d := o.neo.EstimatedDiameter.Kilometers.Max; d > 0 {
			rec.DiameterKm = &d
		}
		if v, ok := parsePositive(o.neo.CloseApproachData[0].RelativeVelocity.KilometersPerSecond); ok {
			rec.VelocityKms = &v
		}
		details = append(details, rec)
	}
	return details, nil
}

type datedObject struct {
	date string
	neo  NearEarthObject
}

// flatten walks the feed in date order and drops repeat sightings of an id.
func flatten(feed Feed) []datedObject {
	dates := make([]string, 0, len(feed.NearEarthObjects))
	for d := range feed.NearEarthObjects {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	seen := make(map[string]bool)
	var out []datedObject
	for _, d := range dates {
		for _, neo := range feed.NearEarthObjects[d] {
			if neo.ID == "" || seen[neo.ID] {
				continue
			}
			seen[neo.ID] = true
			out = append(out, datedObject{date: d, neo: neo})
		}
	}
	return out
}

func missDistanceKm(neo NearEarthObject) float64 {
	if len(neo.CloseApproachData) == 0 {
		return math.Inf(1)
	}
	v, ok := parsePositive(neo.CloseApproachData[0].MissDistance.Kilometers)
	if !ok {
		return math.Inf(1)
	}
	return v
}

func parsePositive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

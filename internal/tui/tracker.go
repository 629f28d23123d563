package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	fieldIPAddress  = "ip_address"
	fieldLatitude   = "Latitude"
	fieldLongitude  = "Longitude"
	fieldSuspicious = "suspicious"

	suspiciousThreshold = 0.5
	topLocationsLimit   = 5
)

// Point is one live package on the monitor, keyed by source address.
type Point struct {
	Address    string
	Location   string
	Suspicious bool
	SeenAt     time.Time
}

// LocationCount is a Latitude,Longitude pair and how often it was seen.
type LocationCount struct {
	Location string
	Count    int
}

// Stats is a snapshot of the tracker counters.
type Stats struct {
	Total        int
	Suspicious   int
	Live         int
	TopLocations []LocationCount
}

// Tracker turns repeated List snapshots into running traffic stats.
// An address is counted once while its point is live; after the lifetime
// expires the address can be counted again.
type Tracker struct {
	lifetime   time.Duration
	live       map[string]Point
	total      int
	suspicious int
	locations  map[string]int
}

// NewTracker creates a tracker whose points stay live for lifetime.
func NewTracker(lifetime time.Duration) *Tracker {
	t := &Tracker{lifetime: lifetime}
	t.Reset()
	return t
}

// Reset clears all counters and live points.
func (t *Tracker) Reset() {
	t.live = make(map[string]Point)
	t.locations = make(map[string]int)
	t.total = 0
	t.suspicious = 0
}

// Observe expires stale points, then counts packages whose address is not live.
// It returns how many packages were newly counted.
func (t *Tracker) Observe(packages []json.RawMessage, now time.Time) int {
	t.Expire(now)

	added := 0
	for _, raw := range packages {
		fields, ok := decodeFields(raw)
		if !ok {
			continue
		}
		addr := fields[fieldIPAddress]
		if _, seen := t.live[addr]; seen {
			continue
		}

		location := fields[fieldLatitude] + "," + fields[fieldLongitude]
		score, _ := strconv.ParseFloat(strings.TrimSpace(fields[fieldSuspicious]), 64)
		t.live[addr] = Point{
			Address:    addr,
			Location:   location,
			Suspicious: score >= suspiciousThreshold,
			SeenAt:     now,
		}

		t.total++
		if fields[fieldSuspicious] == "1" {
			t.suspicious++
		}
		t.locations[location]++
		added++
	}
	return added
}

// Expire drops points older than the lifetime.
func (t *Tracker) Expire(now time.Time) {
	for addr, p := range t.live {
		if now.Sub(p.SeenAt) > t.lifetime {
			delete(t.live, addr)
		}
	}
}

// Stats returns the current counters.
func (t *Tracker) Stats() Stats {
	top := make([]LocationCount, 0, len(t.locations))
	for loc, count := range t.locations {
		top = append(top, LocationCount{Location: loc, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Location < top[j].Location
	})
	if len(top) > topLocationsLimit {
		top = top[:topLocationsLimit]
	}

	return Stats{
		Total:        t.total,
		Suspicious:   t.suspicious,
		Live:         len(t.live),
		TopLocations: top,
	}
}

// LivePoints returns live points, newest first.
func (t *Tracker) LivePoints() []Point {
	out := make([]Point, 0, len(t.live))
	for _, p := range t.live {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SeenAt.Equal(out[j].SeenAt) {
			return out[i].SeenAt.After(out[j].SeenAt)
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// decodeFields flattens a JSON object's top-level values into strings.
func decodeFields(raw json.RawMessage) (map[string]string, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = val
		case float64:
			fields[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			fields[k] = fmt.Sprint(val)
		}
	}
	return fields, true
}

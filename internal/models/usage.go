package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayFormat is the calendar-day key used in usage records
const DayFormat = "2006-01-02"

// UsageRecord is the per-key usage document stored at /usage/{key}.
// On the wire the per-day counters sit next to "total" and "lastUsed":
//
//	{"2025-01-02": 3, "2025-01-03": 4, "total": 7, "lastUsed": "..."}
type UsageRecord struct {
	Days     map[string]int64
	Total    int64
	LastUsed time.Time
}

// Increment records one request at the given time
func (u *UsageRecord) Increment(now time.Time) {
	if u.Days == nil {
		u.Days = make(map[string]int64)
	}
	u.Days[now.UTC().Format(DayFormat)]++
	u.Total++
	u.LastUsed = now.UTC()
}

// MarshalJSON flattens the day counters into the top-level object
func (u UsageRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Days)+2)
	for day, n := range u.Days {
		out[day] = n
	}
	out["total"] = u.Total
	if !u.LastUsed.IsZero() {
		out["lastUsed"] = u.LastUsed.Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flattened layout written by MarshalJSON
func (u *UsageRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.Days = make(map[string]int64)
	for k, v := range raw {
		switch k {
		case "total":
			if err := json.Unmarshal(v, &u.Total); err != nil {
				return fmt.Errorf("usage total: %w", err)
			}
		case "lastUsed":
			if err := json.Unmarshal(v, &u.LastUsed); err != nil {
				return fmt.Errorf("usage lastUsed: %w", err)
			}
		default:
			if _, err := time.Parse(DayFormat, k); err != nil {
				continue
			}
			var n int64
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("usage day %s: %w", k, err)
			}
			u.Days[k] = n
		}
	}
	return nil
}

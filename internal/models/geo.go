package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Coord is a coordinate component that may be stored as a JSON number or a numeric string.
type Coord float64

// UnmarshalJSON accepts 16.7, "16.7" and null.
func (c *Coord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse coordinate %q: %w", raw, err)
	}
	*c = Coord(v)
	return nil
}

// Geo carries the coordinate spellings found in stored records.
type Geo struct {
	Latitude  *Coord `json:"latitude,omitempty"`
	Lat       *Coord `json:"lat,omitempty"`
	Longitude *Coord `json:"longitude,omitempty"`
	Long      *Coord `json:"long,omitempty"`
	Lng       *Coord `json:"lng,omitempty"`
}

// Coordinates is a map pin position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinates picks latitude over lat and longitude over long over lng.
// ok is false when either component is missing.
func (g Geo) Coordinates() (Coordinates, bool) {
	lat := firstCoord(g.Latitude, g.Lat)
	lng := firstCoord(g.Longitude, g.Long, g.Lng)
	if lat == nil || lng == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: float64(*lat), Lng: float64(*lng)}, true
}

func firstCoord(cs ...*Coord) *Coord {
	for _, c := range cs {
		if c != nil {
			return c
		}
	}
	return nil
}

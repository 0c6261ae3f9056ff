package geo

import (
	"math"
	"strings"

	"github.com/example/carpool-matching/internal/models"
)

// Locations are the named stops the service knows coordinates for.
var Locations = map[string]models.Coord{
	"Tech Park Campus":     {Lat: 37.3916, Lon: -122.0494},
	"University Main Gate": {Lat: 37.4275, Lon: -122.1697},
	"Downtown Metro":       {Lat: 37.7749, Lon: -122.4194},
	"Central Station":      {Lat: 37.3382, Lon: -121.8863},
	"Westside Apartments":  {Lat: 37.7569, Lon: -122.4798},
	"North Hills Mall":     {Lat: 37.5682, Lon: -122.3255},
}

// Lookup resolves a stop name, ignoring case and surrounding space.
func Lookup(name string) (models.Coord, bool) {
	name = strings.TrimSpace(name)
	if c, ok := Locations[name]; ok {
		return c, true
	}
	for k, c := range Locations {
		if strings.EqualFold(k, name) {
			return c, true
		}
	}
	return models.Coord{}, false
}

// Lerp moves from a towards b by fraction t in [0, 1].
func Lerp(a, b models.Coord, t float64) models.Coord {
	t = math.Max(0, math.Min(1, t))
	return models.Coord{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
}

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// Distance is Haversine over two coordinates.
func Distance(a, b models.Coord) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

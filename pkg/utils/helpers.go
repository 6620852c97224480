package utils

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between two points in meters
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// DistanceKm returns the great-circle distance between two points in kilometers
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceMeters(lat1, lon1, lat2, lon2) / 1000
}

// DistanceToSegmentMeters returns the distance from a point to the segment a-b.
// The segment is projected onto a local equirectangular plane around the point,
// which is accurate for the short edges of a route geometry.
func DistanceToSegmentMeters(lat, lon, aLat, aLon, bLat, bLon float64) float64 {
	metersPerDeg := math.Pi * EarthRadiusMeters / 180
	cosLat := math.Cos(lat * math.Pi / 180)

	ax := (aLon - lon) * cosLat * metersPerDeg
	ay := (aLat - lat) * metersPerDeg
	bx := (bLon - lon) * cosLat * metersPerDeg
	by := (bLat - lat) * metersPerDeg

	dx, dy := bx-ax, by-ay
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return DistanceMeters(lat, lon, aLat, aLon)
	}

	t := -(ax*dx + ay*dy) / lengthSq
	t = math.Max(0, math.Min(1, t))
	return DistanceMeters(lat, lon, aLat+t*(bLat-aLat), aLon+t*(bLon-aLon))
}

// ClampInt limits a value between min and max
func ClampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// Lerp performs linear interpolation between two values
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

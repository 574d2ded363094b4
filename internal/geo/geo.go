package geo

import "math"

// Earth radius in kilometers.
const earthRadiusKm = 6371

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	dLon := toRad(lon2 - lon1)
	dLat := toRad(lat2 - lat1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

package viewport

// Geolocation error codes as reported by the sensor.
const (
	GeoPermissionDenied    = 1
	GeoPositionUnavailable = 2
	GeoTimeout             = 3
)

// ClassifyGeoError maps a geolocation failure code to a short
// user-facing message.
func ClassifyGeoError(code int) string {
	switch code {
	case GeoPermissionDenied:
		return "Location permission was denied."
	case GeoPositionUnavailable:
		return "Your location is unavailable right now."
	case GeoTimeout:
		return "Finding your location took too long."
	}
	return "Could not get your location."
}

package normalize

// FixedCoord decodes a coordinate stored as a 1e6 fixed-point integer, the
// encoding used by map destination history and the cell/wifi location
// caches (latitude 37.7749 is stored as 377749000... scaled so that
// dividing by 1e7 restores the decimal point for nine-digit values, 1e6
// for seven-digit ones). The caches store degrees * 1e7 when a trailing
// zero pads the value; callers pass the scale their schema uses.
func FixedCoord(raw int64, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return float64(raw) / scale
}

// CoordE6 decodes the common degrees-times-1e6 encoding.
func CoordE6(raw int64) float64 {
	return FixedCoord(raw, 1e6)
}

// CoordE7 decodes the degrees-times-1e7 encoding used by the location
// caches.
func CoordE7(raw int64) float64 {
	return FixedCoord(raw, 1e7)
}

// ValidCoord reports whether a decoded latitude/longitude pair is inside
// the representable range and not the (0, 0) null island placeholder many
// caches write for failed fixes.
func ValidCoord(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

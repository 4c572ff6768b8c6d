package model

// InitialBands returns the default band of each of n satellites: the first
// at 0, each following one two bands higher, except that the last sits one
// band above its predecessor. Two satellites get 0 and 1, four get 0, 2, 4
// and 5.
func InitialBands(n int) []int {
	bands := make([]int, n)
	band := 0
	for i := 1; i <= n; i++ {
		bands[i-1] = band
		band++
		if i != n-1 {
			band++
		}
	}
	return bands
}

// TopBand is the highest band a satellite may point at in a constellation of
// numSatellites. It is numSatellites unless the default layout already puts
// the last satellite higher, which happens from four satellites on.
func TopBand(numSatellites int) int {
	if numSatellites <= 0 {
		return 0
	}
	return max(numSatellites, InitialBands(numSatellites)[numSatellites-1])
}

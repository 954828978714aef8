package toolrun

// Tier fixes the raster resolution and lossy-encoding quality handed to
// compression and rasterization tools for one band of the quality scalar.
// The scalar requests compression strength: a higher value selects a lower
// DPI and JPEG quality and therefore a smaller output. Bands are closed at
// the top: 1-25, 26-50, 51-75, 76-90, 91-100.
type Tier struct {
	Name        string
	MaxQuality  int
	DPI         int
	JPEGQuality int
}

var tiers = []Tier{
	{Name: "prepress", MaxQuality: 25, DPI: 300, JPEGQuality: 90},
	{Name: "printer", MaxQuality: 50, DPI: 200, JPEGQuality: 80},
	{Name: "ebook", MaxQuality: 75, DPI: 150, JPEGQuality: 70},
	{Name: "screen", MaxQuality: 90, DPI: 100, JPEGQuality: 55},
	{Name: "minimal", MaxQuality: 100, DPI: 72, JPEGQuality: 40},
}

// DefaultQuality is applied when the caller supplies no quality scalar.
const DefaultQuality = 75

// ClampQuality forces a scalar into [1, 100]; zero and negatives clamp to 1.
func ClampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// TierFor returns the tier for a quality scalar, clamping first.
func TierFor(quality int) Tier {
	q := ClampQuality(quality)
	for _, t := range tiers {
		if q <= t.MaxQuality {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

package apps

import (
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/scan"
)

// browserLocationAnalyzer parses cached geolocation fixes left behind by
// the Android browser.
type browserLocationAnalyzer struct{}

const browserPackage = "com.android.browser"

func (browserLocationAnalyzer) Name() string { return "Browser Location Parser" }

func (a browserLocationAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "CachedGeoposition.db", true, browserPackage,
		func(db *appdb.DB, _ string) error {
			rs, err := db.RunQuery(browserLocationQuery)
			if err != nil {
				return err
			}
			defer rs.Close()
			for rs.Next() {
				if sc.Cancelled() {
					return nil
				}
				lat := rs.GetDouble("latitude").Float64
				lon := rs.GetDouble("longitude").Float64
				if !normalize.ValidCoord(lat, lon) {
					logFieldErrors(sc, a.Name(), rs)
					continue
				}
				sc.PostGeoPoint(record.GeoPoint{
					Source:       a.Name(),
					Latitude:     lat,
					Longitude:    lon,
					TimestampSec: normalize.ToEpochSeconds(rs.GetLong("timestamp").Int64, normalize.UnitMilliseconds),
				})
				logFieldErrors(sc, a.Name(), rs)
			}
			return rs.Err()
		})
}

const browserLocationQuery = `
	SELECT timestamp,
	       latitude,
	       longitude,
	       accuracy
	FROM   CachedPosition
`

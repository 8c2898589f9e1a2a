package apps

import (
	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/scan"
)

// googleMapsAnalyzer parses the Google Maps destination history. Each row
// holds a source and destination coordinate pair, stored as 1e6 fixed-point
// integers, which becomes a two-waypoint route.
type googleMapsAnalyzer struct{}

const googleMapsPackage = "com.google.android.apps.maps"

func (googleMapsAnalyzer) Name() string { return "Google Maps History Parser" }

func (a googleMapsAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "da_destination_history", true, googleMapsPackage,
		func(db *appdb.DB, sourcePath string) error {
			rs, err := db.RunQuery(googleMapsQuery)
			if err != nil {
				return err
			}
			defer rs.Close()
			for rs.Next() {
				if sc.Cancelled() {
					return nil
				}
				when := normalize.ToEpochSeconds(rs.GetLong("time").Int64, normalize.UnitMilliseconds)
				label := rs.GetString("dest_title").String
				if label == "" {
					label = rs.GetString("dest_address").String
				}
				sc.PostGeoRoute(record.GeoRoute{
					Source: a.Name(),
					Label:  label,
					Points: []record.GeoPoint{
						{
							Latitude:     normalize.CoordE6(rs.GetLong("source_lat").Int64),
							Longitude:    normalize.CoordE6(rs.GetLong("source_lng").Int64),
							TimestampSec: when,
						},
						{
							Latitude:     normalize.CoordE6(rs.GetLong("dest_lat").Int64),
							Longitude:    normalize.CoordE6(rs.GetLong("dest_lng").Int64),
							TimestampSec: when,
							Label:        label,
						},
					},
				})
				logFieldErrors(sc, a.Name(), rs)
			}
			return rs.Err()
		})
}

const googleMapsQuery = `
	SELECT time,
	       dest_lat,
	       dest_lng,
	       dest_title,
	       dest_address,
	       source_lat,
	       source_lng
	FROM   destination_history
`

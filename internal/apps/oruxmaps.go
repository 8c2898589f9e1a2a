package apps

import (
	"fmt"

	"github.com/Napageneral/commscan/internal/appdb"
	"github.com/Napageneral/commscan/internal/normalize"
	"github.com/Napageneral/commscan/internal/record"
	"github.com/Napageneral/commscan/internal/scan"
)

// oruxMapsAnalyzer parses the OruxMaps track database. Points of interest
// become standalone GeoPoints and each recorded track becomes a route of
// its trackpoints.
type oruxMapsAnalyzer struct{}

const oruxMapsPackage = "com.orux.oruxmaps"

func (oruxMapsAnalyzer) Name() string { return "OruxMaps Parser" }

func (a oruxMapsAnalyzer) Analyze(sc *scan.Context) error {
	return withDatabases(sc, a.Name(), "oruxmapstracks.db", true, oruxMapsPackage,
		func(db *appdb.DB, _ string) error {
			if err := a.pois(sc, db); err != nil {
				return err
			}
			return a.tracks(sc, db)
		})
}

const oruxPOIQuery = `
	SELECT poilat,
	       poilon,
	       poialt,
	       poitime,
	       poiname
	FROM   pois
`

const oruxTrackListQuery = `
	SELECT _id,
	       trackname
	FROM   tracks
`

const oruxTrackPointQuery = `
	SELECT trkptlat,
	       trkptlon,
	       trkptalt,
	       trkpttime
	FROM   trackpoints
	WHERE  trkptseg IN (SELECT _id FROM segments WHERE segtrack = ?)
	ORDER  BY trkpttime
`

func (a oruxMapsAnalyzer) pois(sc *scan.Context, db *appdb.DB) error {
	rs, err := db.RunQuery(oruxPOIQuery)
	if err != nil {
		return err
	}
	defer rs.Close()
	for rs.Next() {
		if sc.Cancelled() {
			return nil
		}
		lat := rs.GetDouble("poilat").Float64
		lon := rs.GetDouble("poilon").Float64
		if !normalize.ValidCoord(lat, lon) {
			logFieldErrors(sc, a.Name(), rs)
			continue
		}
		alt := rs.GetDouble("poialt")
		sc.PostGeoPoint(record.GeoPoint{
			Source:       a.Name(),
			Latitude:     lat,
			Longitude:    lon,
			Altitude:     alt.Float64,
			HasAltitude:  alt.Valid,
			TimestampSec: normalize.ToEpochSeconds(rs.GetLong("poitime").Int64, normalize.UnitMilliseconds),
			Label:        rs.GetString("poiname").String,
		})
		logFieldErrors(sc, a.Name(), rs)
	}
	return rs.Err()
}

type oruxTrack struct {
	id   int64
	name string
}

func (a oruxMapsAnalyzer) tracks(sc *scan.Context, db *appdb.DB) error {
	rs, err := db.RunQuery(oruxTrackListQuery)
	if err != nil {
		return err
	}
	var tracks []oruxTrack
	for rs.Next() {
		tracks = append(tracks, oruxTrack{
			id:   rs.GetLong("_id").Int64,
			name: rs.GetString("trackname").String,
		})
	}
	if err := rs.Err(); err != nil {
		rs.Close()
		return err
	}
	rs.Close()

	for _, t := range tracks {
		if sc.Cancelled() {
			return nil
		}
		if err := a.track(sc, db, t); err != nil {
			return fmt.Errorf("track %d: %w", t.id, err)
		}
	}
	return nil
}

func (a oruxMapsAnalyzer) track(sc *scan.Context, db *appdb.DB, t oruxTrack) error {
	rs, err := db.RunQuery(oruxTrackPointQuery, t.id)
	if err != nil {
		return err
	}
	defer rs.Close()
	var points []record.GeoPoint
	for rs.Next() {
		lat := rs.GetDouble("trkptlat").Float64
		lon := rs.GetDouble("trkptlon").Float64
		if !normalize.ValidCoord(lat, lon) {
			logFieldErrors(sc, a.Name(), rs)
			continue
		}
		alt := rs.GetDouble("trkptalt")
		points = append(points, record.GeoPoint{
			Latitude:     lat,
			Longitude:    lon,
			Altitude:     alt.Float64,
			HasAltitude:  alt.Valid,
			TimestampSec: normalize.ToEpochSeconds(rs.GetLong("trkpttime").Int64, normalize.UnitMilliseconds),
			Label:        t.name,
		})
		logFieldErrors(sc, a.Name(), rs)
	}
	if err := rs.Err(); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	sc.PostGeoRoute(record.GeoRoute{
		Source: a.Name(),
		Label:  t.name,
		Points: points,
	})
	return nil
}

// Package geoenrich supplies an approximate geolocation from a MaxMind
// GeoIP2 City database when a transaction carries an IP address but no
// geolocation, so the geographic feature group still has coordinates to
// work with (spec component C15). Lookup failure is non-fatal: the
// transaction is left without geolocation, and the existing
// has_geolocation=false path applies downstream.
//
// Grounded on the teacher's go-enricher/maxmind_functions.go.
package geoenrich

import (
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/fraudscorer/streaming-scorer/internal/models"
)

// Enricher wraps an open MaxMind City database.
type Enricher struct {
	db *geoip2.Reader
}

// Open opens the GeoIP2 City database at path. The caller must call
// Close when done.
func Open(path string) (*Enricher, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Enricher{db: db}, nil
}

func (e *Enricher) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Lookup returns an approximate GeoPoint for ip, or nil if the address
// is invalid or the database has no record for it.
func (e *Enricher) Lookup(ip string) *models.GeoPoint {
	if e == nil || e.db == nil {
		return nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}
	record, err := e.db.City(parsed)
	if err != nil {
		return nil
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return nil
	}
	return &models.GeoPoint{
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
	}
}

// Enrich fills txn.Geolocation from txn.IPAddress when it is absent and
// the transaction carries an address. It never errors: a failed lookup
// simply leaves the transaction as it was.
func (e *Enricher) Enrich(txn *models.Transaction) {
	if txn.Geolocation != nil || txn.IPAddress == "" {
		return
	}
	if pt := e.Lookup(txn.IPAddress); pt != nil {
		txn.Geolocation = pt
	}
}

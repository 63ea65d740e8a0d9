package Geofence

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"Souq/Models"
)

const earthRadiusKm = 6371.0

// ErrVendorExists means another active vendor already holds the exclusivity
// zone around the proposed coordinates.
var ErrVendorExists = errors.New("an active vendor already operates within the exclusivity radius")

// Guard enforces the one-active-vendor-per-radius rule at onboarding.
//
// The check and the insert run inside one write transaction: the new vendor
// row is inserted first, which takes the database write lock, and only then
// are neighbors queried. Two concurrent registrations for the same empty zone
// therefore serialize — the loser's neighbor query runs after the winner's
// commit, observes the winner and rolls its own insert back.
type Guard struct {
	DB       *gorm.DB
	RadiusKm float64
}

func NewGuard(db *gorm.DB) *Guard {
	return &Guard{DB: db, RadiusKm: Models.ExclusivityRadiusKM()}
}

// RegisterVendor inserts the vendor if its exclusivity zone is free. On
// rejection the vendor record is not persisted and ErrVendorExists is
// returned.
func (g *Guard) RegisterVendor(vendor *Models.Vendor) error {
	if vendor.Latitude < -90 || vendor.Latitude > 90 || vendor.Longitude < -180 || vendor.Longitude > 180 {
		return fmt.Errorf("invalid coordinates (%.6f, %.6f)", vendor.Latitude, vendor.Longitude)
	}

	err := withBusyRetry(func() error {
		return g.DB.Transaction(func(tx *gorm.DB) error {
			// A retried attempt must not reuse the ID from a rolled-back insert.
			vendor.ID = 0
			if vendor.Status == "" {
				vendor.Status = Models.VendorStatusPending
			}
			if err := tx.Create(vendor).Error; err != nil {
				return err
			}

			neighbor, err := g.nearestNeighbor(tx, vendor)
			if err != nil {
				return err
			}
			if neighbor != nil {
				log.Printf("Vendor registration at (%.6f, %.6f) rejected: vendor %d holds the zone",
					vendor.Latitude, vendor.Longitude, neighbor.ID)
				return ErrVendorExists
			}
			return nil
		})
	})
	if err != nil {
		// The insert was rolled back; clear the stale ID gorm assigned.
		vendor.ID = 0
		return err
	}

	log.Printf("Registered vendor %d at (%.6f, %.6f)", vendor.ID, vendor.Latitude, vendor.Longitude)
	return nil
}

// nearestNeighbor finds the closest blocking vendor within the radius, using a
// bounding-box prefilter in SQL and exact haversine distances in Go.
func (g *Guard) nearestNeighbor(tx *gorm.DB, vendor *Models.Vendor) (*Models.Vendor, error) {
	latDelta := g.RadiusKm / 111.0
	lngScale := math.Cos(vendor.Latitude * math.Pi / 180)
	if math.Abs(lngScale) < 0.01 {
		lngScale = 0.01
	}
	lngDelta := g.RadiusKm / (111.0 * math.Abs(lngScale))

	var candidates []Models.Vendor
	err := tx.Where("id <> ? AND status IN ? AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
		vendor.ID,
		[]string{Models.VendorStatusPending, Models.VendorStatusApproved},
		vendor.Latitude-latDelta, vendor.Latitude+latDelta,
		vendor.Longitude-lngDelta, vendor.Longitude+lngDelta).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	var nearest *Models.Vendor
	best := g.RadiusKm
	for i := range candidates {
		d := HaversineKm(vendor.Latitude, vendor.Longitude, candidates[i].Latitude, candidates[i].Longitude)
		if d <= best {
			best = d
			nearest = &candidates[i]
		}
	}
	return nearest, nil
}

// HaversineKm calculates the great-circle distance between two points on Earth
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert latitude and longitude from degrees to radians
	rlat1 := lat1 * math.Pi / 180
	rlng1 := lng1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlng2 := lng2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlng := rlng2 - rlng1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dlng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func withBusyRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 25 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

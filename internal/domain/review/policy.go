package review

import (
	"fmt"
	"math"

	"besaha/internal/pkg/geo"
)

// DefaultMaxDistanceMeters is how far from the restaurant a reviewer may be.
const DefaultMaxDistanceMeters = 200.0

const (
	ReasonRestaurantNotFound = "Restaurant not found"
	ReasonNoGPS              = "No GPS data provided"
	ReasonMissingPhoto       = "Missing photo proof"
	ReasonVerified           = "Verified by GPS & Photo"
	ReasonServerError        = "Server Verification Error"
)

// TooFarReason formats the distance rejection with the distance rounded to whole meters.
func TooFarReason(distance float64) string {
	return fmt.Sprintf("Too far away (%dm)", int64(math.Round(distance)))
}

type Verdict struct {
	Verified bool
	Reason   string
	// Distance is set when the distance rule was evaluated.
	Distance *float64
}

type PolicyInput struct {
	RestaurantFound bool
	Restaurant      geo.Coordinates
	UserLocation    *geo.Coordinates
	HasMedia        bool
}

// Policy decides whether a review is a verified visit. Rules run in order
// and the first failing rule decides. It never returns an error.
type Policy struct {
	MaxDistanceMeters float64
}

func NewPolicy(maxDistance float64) Policy {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistanceMeters
	}
	return Policy{MaxDistanceMeters: maxDistance}
}

func (p Policy) Evaluate(in PolicyInput) Verdict {
	if !in.RestaurantFound {
		return Verdict{Reason: ReasonRestaurantNotFound}
	}
	if in.UserLocation == nil {
		return Verdict{Reason: ReasonNoGPS}
	}
	if !in.HasMedia {
		return Verdict{Reason: ReasonMissingPhoto}
	}

	d := geo.Distance(*in.UserLocation, in.Restaurant)
	if d > p.MaxDistanceMeters {
		return Verdict{Reason: TooFarReason(d), Distance: &d}
	}
	return Verdict{Verified: true, Reason: ReasonVerified, Distance: &d}
}

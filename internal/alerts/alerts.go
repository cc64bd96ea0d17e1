// Package alerts maps a free-text scene description onto the fixed set of
// boolean security flags and alert-type rows.
package alerts

import "strings"

// Kind is one of the five named boolean classifications (GLOSSARY).
type Kind string

const (
	PersonDetected  Kind = "PERSON_DETECTED"
	VehicleDetected Kind = "VEHICLE_DETECTED"
	PackageDetected Kind = "PACKAGE_DETECTED"
	UnusualActivity Kind = "UNUSUAL_ACTIVITY"
	NightTime       Kind = "NIGHT_TIME"
)

// Priority is the fixed catalog priority seeded at startup.
var Priority = map[Kind]int{
	PersonDetected:  2,
	VehicleDetected: 2,
	PackageDetected: 3,
	UnusualActivity: 4,
	NightTime:       1,
}

// AllKinds lists the catalog in a stable order, used for seeding.
var AllKinds = []Kind{PersonDetected, VehicleDetected, PackageDetected, UnusualActivity, NightTime}

var keywords = map[Kind][]string{
	PersonDetected:  {"person", "people", "man", "woman", "pedestrian", "figure"},
	VehicleDetected: {"car", "truck", "van", "suv", "motorcycle", "vehicle"},
	PackageDetected: {"package", "box", "delivery", "parcel"},
	UnusualActivity: {"suspicious", "unusual", "loitering", "unknown"},
	NightTime:       {"night", "dark", "low light", "nighttime"},
}

// Flags are the denormalized booleans stored on a Detection row.
type Flags struct {
	HasPerson          bool
	HasVehicle         bool
	HasPackage         bool
	HasUnusualActivity bool
	IsNightTime        bool
}

// Derive runs the keyword policy over description and returns both the
// boolean projection and the ordered set of kinds that fired — the set
// DetectionAlert rows must be written for.
func Derive(description string) (Flags, []Kind) {
	lower := strings.ToLower(description)

	var flags Flags
	var fired []Kind

	for _, kind := range AllKinds {
		if matchesAny(lower, keywords[kind]) {
			fired = append(fired, kind)
			switch kind {
			case PersonDetected:
				flags.HasPerson = true
			case VehicleDetected:
				flags.HasVehicle = true
			case PackageDetected:
				flags.HasPackage = true
			case UnusualActivity:
				flags.HasUnusualActivity = true
			case NightTime:
				flags.IsNightTime = true
			}
		}
	}

	return flags, fired
}

func matchesAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

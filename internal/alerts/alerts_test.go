package alerts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikesvoboda/foscam-ingest/internal/alerts"
)

func TestDerive_PersonAndVehicle(t *testing.T) {
	flags, kinds := alerts.Derive("SCENE: front yard | OBJECTS: 1 person, 3 vehicles | SETTING: daytime")

	assert.True(t, flags.HasPerson)
	assert.True(t, flags.HasVehicle)
	assert.False(t, flags.HasPackage)
	assert.False(t, flags.IsNightTime)
	assert.ElementsMatch(t, []alerts.Kind{alerts.PersonDetected, alerts.VehicleDetected}, kinds)
}

func TestDerive_NightUnusualActivity(t *testing.T) {
	flags, kinds := alerts.Derive("SECURITY: suspicious loitering at night")

	assert.True(t, flags.HasUnusualActivity)
	assert.True(t, flags.IsNightTime)
	assert.Len(t, kinds, 2)
}

func TestDerive_NoKeywords(t *testing.T) {
	flags, kinds := alerts.Derive("a quiet empty driveway")
	assert.Equal(t, alerts.Flags{}, flags)
	assert.Empty(t, kinds)
}

func TestDerive_CaseInsensitive(t *testing.T) {
	_, kinds := alerts.Derive("A DELIVERY BOX on the porch")
	assert.Contains(t, kinds, alerts.PackageDetected)
}

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ilumina-bknd/internal/models"
)

func TestResolveEmptyInventory(t *testing.T) {
	res := Resolve(origin, nil)
	assert.Nil(t, res.Nearest)
	assert.Empty(t, res.Nearby)
	assert.Nil(t, res.AutoSelected)
	// Both radii were tried before giving up.
	assert.Equal(t, ExpandedRadiusMeters, res.RadiusUsed)
}

func TestResolveNearbyRadiusWins(t *testing.T) {
	poles := []models.Pole{
		pole("80m", -22.78672, -50.205),
		pole("far", -22.80, -50.22),
	}
	res := Resolve(origin, poles)
	assert.Equal(t, NearbyRadiusMeters, res.RadiusUsed)
	require.Len(t, res.Nearby, 1)
	assert.Equal(t, "80m", res.Nearby[0].Pole.ExternalID)
	require.NotNil(t, res.Nearest)
	assert.Equal(t, "80m", res.Nearest.Pole.ExternalID)
}

func TestResolveEscalatesOnce(t *testing.T) {
	// Nothing within 100 m, one pole at ~222 m.
	poles := []models.Pole{pole("222m", -22.788, -50.205)}
	res := Resolve(origin, poles)
	assert.Equal(t, ExpandedRadiusMeters, res.RadiusUsed)
	require.Len(t, res.Nearby, 1)
	assert.Equal(t, "222m", res.Nearby[0].Pole.ExternalID)
}

func TestResolveStillEmptyAfterEscalation(t *testing.T) {
	poles := []models.Pole{pole("2km", -22.804, -50.205)}
	res := Resolve(origin, poles)
	assert.Equal(t, ExpandedRadiusMeters, res.RadiusUsed)
	assert.Empty(t, res.Nearby)
	// Nearest is still reported even when out of range.
	require.NotNil(t, res.Nearest)
	assert.Equal(t, "2km", res.Nearest.Pole.ExternalID)
}

func TestResolveAutoSelectSingleCandidate(t *testing.T) {
	poles := []models.Pole{
		pole("20m", -22.78618, -50.205),
		pole("80m", -22.78672, -50.205),
	}
	res := Resolve(origin, poles)
	require.NotNil(t, res.AutoSelected)
	assert.Equal(t, "20m", res.AutoSelected.Pole.ExternalID)
}

func TestResolveNoAutoSelectWhenAmbiguous(t *testing.T) {
	// Two poles inside the auto-select radius: the citizen must choose.
	poles := []models.Pole{
		pole("20m", -22.78618, -50.205),
		pole("25m", -22.786225, -50.205),
	}
	res := Resolve(origin, poles)
	assert.Nil(t, res.AutoSelected)
	assert.Len(t, res.Nearby, 2)
}

func TestResolveNoAutoSelectWhenTooFar(t *testing.T) {
	poles := []models.Pole{pole("80m", -22.78672, -50.205)}
	res := Resolve(origin, poles)
	assert.Nil(t, res.AutoSelected)
}

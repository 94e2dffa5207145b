package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLooseFloat(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"-22.786", -22.786, true},
		{"-22,786", -22.786, true},
		{" 100 ", 100, true},
		{"0", 0, true},
		{"1.500,5", 1.5, true}, // thousands dot + decimal comma: longest prefix
		{"70W", 70, true},
		{"", 0, false},
		{"abc", 0, false},
		{"N/A", 0, false},
		{"-", 0, false},
		{"1e3", 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLooseFloat(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCoerceRow(t *testing.T) {
	row := CoerceRow(" A1 ", " IP1 ", "-22,786", "-50,205", " LED ", "100")
	assert.Equal(t, "A1", row.PoleExternalID)
	assert.Equal(t, "IP1", row.IPIdentifier)
	assert.True(t, row.LatLngOK)
	assert.InDelta(t, -22.786, row.Latitude, 1e-9)
	assert.InDelta(t, -50.205, row.Longitude, 1e-9)
	require.NotNil(t, row.LampType)
	assert.Equal(t, "LED", *row.LampType)
	assert.Equal(t, 100, row.PowerW)
}

func TestCoerceRowDefaults(t *testing.T) {
	row := CoerceRow("A1", "", "bogus", "-50.205", "  ", "not-a-number")
	assert.False(t, row.LatLngOK)
	assert.Nil(t, row.LampType)
	assert.Equal(t, 0, row.PowerW)
}

func TestCoerceRowPowerRounding(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"100", 100},
		{"70,4", 70},
		{"70,5", 71},
		{"1.500,5", 2}, // legacy comma-decimal quirk, see parseLooseFloat
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		row := CoerceRow("A1", "IP1", "-22.786", "-50.205", "LED", tt.in)
		assert.Equal(t, tt.want, row.PowerW, "POTENCIA_W=%q", tt.in)
	}
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFeed(t *testing.T) {
	path := writeTempCSV(t, "\ufeffID_POSTE,ID_IP,LATITUDE,LONGITUDE,TIPO_LAMPADA,POTENCIA_W\n"+
		"A1,IP1,\"-22,786\",\"-50,205\",LED,100\n"+
		"A1,IP2,\"-22,786\",\"-50,205\",LED,100\n")

	rows, err := ReadFeed(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[0].PoleExternalID)
	assert.Equal(t, "IP1", rows[0].IPIdentifier)
	assert.Equal(t, "IP2", rows[1].IPIdentifier)
	assert.True(t, rows[0].LatLngOK)
}

func TestReadFeedMissingColumns(t *testing.T) {
	// Schema drift: no TIPO_LAMPADA / POTENCIA_W columns. Fields
	// degrade to defaults, the read itself succeeds.
	path := writeTempCSV(t, "ID_POSTE,ID_IP,LATITUDE,LONGITUDE\n"+
		"A1,IP1,-22.786,-50.205\n")

	rows, err := ReadFeed(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].LampType)
	assert.Equal(t, 0, rows[0].PowerW)
	assert.True(t, rows[0].LatLngOK)
}

func TestReadFeedMissingFile(t *testing.T) {
	_, err := ReadFeed(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestReadFeedEmpty(t *testing.T) {
	rows, err := ReadFeed(writeTempCSV(t, ""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

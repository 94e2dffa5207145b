// Package ingest turns the raw per-IP pole feed into deduplicated,
// idempotent pole inserts.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Feed column names, case-sensitive, as produced upstream.
const (
	colPoleID    = "ID_POSTE"
	colIPID      = "ID_IP"
	colLatitude  = "LATITUDE"
	colLongitude = "LONGITUDE"
	colLampType  = "TIPO_LAMPADA"
	colPowerW    = "POTENCIA_W"
)

// RawRow is one feed row after field-by-field coercion. It lives only
// for the duration of a reconciliation run.
type RawRow struct {
	PoleExternalID string
	IPIdentifier   string
	Latitude       float64
	Longitude      float64
	LatLngOK       bool
	LampType       *string
	PowerW         int
}

// ReadFeed reads the whole CSV feed and coerces every row. Missing
// columns degrade to empty values for the affected fields; they never
// abort the read. Row-level validity is judged later by the reconciler.
func ReadFeed(path string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}

	rows := make([]RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		rows = append(rows, CoerceRow(
			get(colPoleID), get(colIPID),
			get(colLatitude), get(colLongitude),
			get(colLampType), get(colPowerW),
		))
	}
	return rows, nil
}

// CoerceRow maps one untyped feed record into a RawRow. Location is
// structural: an unparsable coordinate marks the row invalid. Power is
// cosmetic: an unparsable value just defaults to 0.
func CoerceRow(poleID, ipID, lat, lng, lampType, powerW string) RawRow {
	row := RawRow{
		PoleExternalID: strings.TrimSpace(poleID),
		IPIdentifier:   strings.TrimSpace(ipID),
	}

	latV, latOK := parseLooseFloat(lat)
	lngV, lngOK := parseLooseFloat(lng)
	row.Latitude = latV
	row.Longitude = lngV
	row.LatLngOK = latOK && lngOK

	if p, ok := parseLooseFloat(powerW); ok {
		row.PowerW = int(math.Round(p))
	}

	if lt := strings.TrimSpace(lampType); lt != "" {
		row.LampType = &lt
	}
	return row
}

var numPrefixRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// parseLooseFloat parses the feed's locale-formatted decimals: the
// comma is the decimal separator, and like the upstream consumer it
// reads the longest numeric prefix of whatever remains ("1.500,5"
// becomes "1.500.5" and parses as 1.5).
func parseLooseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	m := numPrefixRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

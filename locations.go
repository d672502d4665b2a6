package locations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// LocationDatFile is the default data source, the location database
	// shipped with the legacy desktop application
	LocationDatFile  = "location.dat"
	LocationJSONFile = "locations.json"
	LocationGOBFile  = "locations.gob.gz"
)

// CityRecord is a single city row from the location database
type CityRecord struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	TZ   float64 `json:"tz"`   // hours from UTC
	Elev float64 `json:"elev"` // meters
}

// CountryRecord groups the cities listed under one [Country] header
type CountryRecord struct {
	Country string       `json:"country"`
	Cities  []CityRecord `json:"cities"`
}

// Document is every country in file order
type Document []CountryRecord

// CityCount is the total number of cities across all countries
func (d Document) CityCount() int {
	var n int
	for _, c := range d {
		n += len(c.Cities)
	}
	return n
}

// Convert parses the location database at source and saves it as JSON to dest
func Convert(source, dest string) (Document, error) {
	return ConvertWithResults(source, dest, nil)
}

// ConvertWithResults is Convert, reporting each line's outcome to fn as
// ParseWithResults does
func ConvertWithResults(source, dest string, fn func(lineNo int, res LineResult)) (Document, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to process %q -- %w", source, err)
	}
	doc, err := ParseWithResults(f, fn)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to process %q -- %w", source, err)
	}
	if err := WriteJSONFile(dest, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadDocument reads a previously converted document, either the JSON
// output or a GOB snapshot
func LoadDocument(filename string) (Document, error) {
	if strings.HasSuffix(filename, ".gob.gz") {
		var doc Document
		if err := GobLoad(filename, &doc); err != nil {
			return nil, err
		}
		// gob drops empty slices, JSON output must keep them as []
		for i := range doc {
			if doc[i].Cities == nil {
				doc[i].Cities = []CityRecord{}
			}
		}
		if doc == nil {
			doc = Document{}
		}
		return doc, nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// GobFileFor names the snapshot that sits next to a JSON output file
func GobFileFor(jsonFile string) string {
	dir := filepath.Dir(jsonFile)
	base := strings.TrimSuffix(filepath.Base(jsonFile), filepath.Ext(jsonFile))
	return filepath.Join(dir, base+".gob.gz")
}

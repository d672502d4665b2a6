package locations

import (
	"fmt"
	"math"
	"strings"

	geo "github.com/kellydunn/golang-geo"
	"github.com/tidwall/rtree"
	"golang.org/x/exp/slices"
)

// earthRadiusKm matches the sphere golang-geo measures distances on
const earthRadiusKm = 6371.0

// boxPad widens the search box, in degrees, to cover rounding
const boxPad = 1e-6

// Location is a city along with the country it was listed under
type Location struct {
	City    CityRecord
	Country string
}

// Lookup searches the cities of a document by name or position
type Lookup struct {
	locations []Location

	// points are stored as lon,lat and map to an index into locations
	points rtree.RTree
}

// NewLookup flattens the document into a searchable city list
func NewLookup(doc Document) *Lookup {
	l := &Lookup{locations: make([]Location, 0, doc.CityCount())}
	for _, country := range doc {
		for _, city := range country.Cities {
			pt := [2]float64{city.Lon, city.Lat}
			l.points.Insert(pt, pt, len(l.locations))
			l.locations = append(l.locations, Location{City: city, Country: country.Country})
		}
	}
	return l
}

// Len is the number of cities indexed
func (l *Lookup) Len() int {
	return len(l.locations)
}

// FindByName returns the first city, in file order, whose name matches
// ignoring case
func (l *Lookup) FindByName(name string) (Location, bool) {
	i := slices.IndexFunc(l.locations, func(loc Location) bool {
		return strings.EqualFold(loc.City.Name, name)
	})
	if i < 0 {
		return Location{}, false
	}
	return l.locations[i], true
}

// Search returns up to limit cities whose name contains text, ignoring
// case, sorted by city then country. A limit <= 0 means no limit.
func (l *Lookup) Search(text string, limit int) []Location {
	text = strings.ToLower(text)
	var found []Location
	for _, loc := range l.locations {
		if strings.Contains(strings.ToLower(loc.City.Name), text) {
			found = append(found, loc)
		}
	}
	slices.SortStableFunc(found, func(a, b Location) bool {
		an, bn := strings.ToLower(a.City.Name), strings.ToLower(b.City.Name)
		if an != bn {
			return an < bn
		}
		return a.Country < b.Country
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found
}

// Nearest returns the closest city to lat,lon that is within radiusKm,
// along with its great circle distance in km
func (l *Lookup) Nearest(lat, lon, radiusKm float64) (Location, float64, error) {
	from := geo.NewPoint(lat, lon)
	best, bestDist := -1, math.Inf(1)

	l.searchRadius(lat, lon, radiusKm, func(id int) {
		city := l.locations[id].City
		dist := from.GreatCircleDistance(geo.NewPoint(city.Lat, city.Lon))
		if dist > radiusKm {
			return
		}
		// ties go to whichever city came first in the file
		if dist < bestDist || (dist == bestDist && id < best) {
			best, bestDist = id, dist
		}
	})

	if best < 0 {
		return Location{}, 0, fmt.Errorf("could not find city within %.1fkm of (%5f,%5f)", radiusKm, lat, lon)
	}
	return l.locations[best], bestDist, nil
}

// searchRadius visits every city inside the bounding box of the circle,
// splitting the box when it crosses the antimeridian
func (l *Lookup) searchRadius(lat, lon, radiusKm float64, fn func(id int)) {
	ang := radiusKm / earthRadiusKm
	dLat := ang*180/math.Pi + boxPad
	minLat, maxLat := math.Max(-90, lat-dLat), math.Min(90, lat+dLat)

	// east-west half width of a circle on the sphere; once sin(ang)
	// reaches cos(lat) the circle covers a pole and every longitude
	dLon := 180.0
	sinAng, cosLat := math.Sin(ang), math.Cos(lat*math.Pi/180)
	if ang < math.Pi/2 && sinAng < cosLat && maxLat < 90 && minLat > -90 {
		dLon = math.Min(180, math.Asin(sinAng/cosLat)*180/math.Pi+boxPad)
	}

	visit := func(minLon, maxLon float64) {
		l.points.Search([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat},
			func(min, max [2]float64, value interface{}) bool {
				fn(value.(int))
				return true
			})
	}

	if dLon >= 180 {
		visit(-180, 180)
		return
	}
	minLon, maxLon := lon-dLon, lon+dLon
	switch {
	case minLon < -180:
		visit(-180, maxLon)
		visit(minLon+360, 180)
	case maxLon > 180:
		visit(minLon, 180)
		visit(-180, maxLon-360)
	default:
		visit(minLon, maxLon)
	}
}

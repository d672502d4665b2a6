package locations

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// LineKind is how a single line of the location database was classified
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeader
	LineCity
	LineSkipped
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeader:
		return "header"
	case LineCity:
		return "city"
	case LineSkipped:
		return "skipped"
	}
	return fmt.Sprintf("LineKind(%d)", int(k))
}

// SkipReason says why a line did not become a city
type SkipReason int

const (
	ReasonNone SkipReason = iota
	ReasonTooFewFields
	ReasonBadNumber
	ReasonNonFinite
	ReasonOrphan
)

func (r SkipReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTooFewFields:
		return "too_few_fields"
	case ReasonBadNumber:
		return "bad_number"
	case ReasonNonFinite:
		return "non_finite"
	case ReasonOrphan:
		return "orphan"
	}
	return fmt.Sprintf("SkipReason(%d)", int(r))
}

// LineResult is the outcome of parsing one line
//
// Country is set for headers, City for city rows. Skipped lines carry a
// Reason, and for number failures the offending Field index and the
// underlying Err.
type LineResult struct {
	Kind    LineKind
	Country string
	City    CityRecord
	Reason  SkipReason
	Field   int
	Err     error
}

const minCityFields = 4

var (
	headerRE = regexp.MustCompile(`^\[(.*?)\]`)

	// two or more of the whitespace characters that exist in Latin-1
	fieldSepRE = regexp.MustCompile(`[\t\n\x0b\f\r \x1c-\x1f\x{85}\x{a0}]{2,}`)

	errHexFloat = errors.New("hexadecimal float not allowed")
)

// isSpace matches the whitespace code points reachable from a Latin-1 byte
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x1c, 0x1d, 0x1e, 0x1f, 0x85, 0xa0:
		return true
	}
	return false
}

// ParseLine classifies a single decoded line
//
// It has no notion of a current country, so a well formed row is always
// reported as LineCity; the document parser turns rows seen before the
// first header into orphans.
func ParseLine(line string) LineResult {
	line = strings.TrimFunc(line, isSpace)
	if line == "" {
		return LineResult{Kind: LineBlank}
	}
	if m := headerRE.FindStringSubmatch(line); m != nil {
		return LineResult{Kind: LineHeader, Country: m[1]}
	}
	return parseCity(line)
}

func parseCity(line string) LineResult {
	parts := fieldSepRE.Split(line, -1)
	if len(parts) < minCityFields {
		return LineResult{Kind: LineSkipped, Reason: ReasonTooFewFields}
	}

	// fields past elevation are ignored
	var nums [4]float64
	count := 3
	if len(parts) > minCityFields {
		count = 4
	}
	for i := 0; i < count; i++ {
		f, err := parseNumber(parts[i+1])
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return LineResult{Kind: LineSkipped, Reason: ReasonNonFinite, Field: i + 1, Err: err}
			}
			return LineResult{Kind: LineSkipped, Reason: ReasonBadNumber, Field: i + 1, Err: err}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return LineResult{Kind: LineSkipped, Reason: ReasonNonFinite, Field: i + 1}
		}
		nums[i] = f
	}

	return LineResult{
		Kind: LineCity,
		City: CityRecord{
			Name: parts[0],
			Lat:  nums[0],
			Lon:  nums[1],
			TZ:   nums[2],
			Elev: nums[3],
		},
	}
}

// parseNumber accepts decimal float syntax only
func parseNumber(s string) (float64, error) {
	s = strings.TrimFunc(s, isSpace)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, fmt.Errorf("%q: %w", s, errHexFloat)
	}
	return strconv.ParseFloat(s, 64)
}

// Parse reads a Latin-1 encoded location database
func Parse(r io.Reader) (Document, error) {
	return ParseWithResults(r, nil)
}

// ParseWithResults is Parse, but reports the outcome of every line to fn
// (when not nil) with its 1-based line number
func ParseWithResults(r io.Reader, fn func(lineNo int, res LineResult)) (Document, error) {
	doc := Document{}
	current := -1

	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt32)
	scanner.Split(scanUniversalLines)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		res := ParseLine(scanner.Text())
		switch res.Kind {
		case LineHeader:
			doc = append(doc, CountryRecord{Country: res.Country, Cities: []CityRecord{}})
			current = len(doc) - 1
		case LineCity, LineSkipped:
			if current < 0 {
				res = LineResult{Kind: LineSkipped, Reason: ReasonOrphan}
			} else if res.Kind == LineCity {
				doc[current].Cities = append(doc[current].Cities, res.City)
			}
		}
		if fn != nil {
			fn(lineNo, res)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read failed at line %d -- %w", lineNo+1, err)
	}
	return doc, nil
}

// ParseFile opens and parses the location database at filename
func ParseFile(filename string) (Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

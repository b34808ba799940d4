// Package address normalizes raw, possibly misread address strings against
// reference dictionaries of suburbs, street names, and street suffixes.
package address

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Suburb is one entry of the suburb dictionary.
type Suburb struct {
	Name     string // display form, e.g. "Callington"
	State    string
	Postcode string
}

// Dictionaries holds the reference data used for address normalization.
// They are loaded once at startup and never mutated afterward.
type Dictionaries struct {
	suburbs  map[string]Suburb   // lowercased name
	streets  map[string][]string // lowercased street name -> suburbs carrying it
	suffixes map[string]string   // lowercased abbreviation -> full word

	// Sorted key lists keep fuzzy lookups deterministic.
	suburbKeys []string
	streetKeys []string

	titler cases.Caser
}

// LoadDictionaries reads the three reference tables from disk. Each file is
// line-oriented with comma-separated fields: streets as "street,suburb",
// suffixes as "abbreviation,fullWord", suburbs as "suburb,stateAndPostcode".
func LoadDictionaries(streetsPath, suffixesPath, suburbsPath string) (*Dictionaries, error) {
	d := newDictionaries()

	if err := loadTable(streetsPath, d.addStreet); err != nil {
		return nil, fmt.Errorf("street dictionary: %w", err)
	}
	if err := loadTable(suffixesPath, d.addSuffix); err != nil {
		return nil, fmt.Errorf("suffix dictionary: %w", err)
	}
	if err := loadTable(suburbsPath, d.addSuburb); err != nil {
		return nil, fmt.Errorf("suburb dictionary: %w", err)
	}

	d.finish()
	return d, nil
}

// ParseDictionaries reads the three reference tables from open readers.
// Useful for tests and embedded data.
func ParseDictionaries(streets, suffixes, suburbs io.Reader) (*Dictionaries, error) {
	d := newDictionaries()

	if err := parseTable(streets, d.addStreet); err != nil {
		return nil, fmt.Errorf("street dictionary: %w", err)
	}
	if err := parseTable(suffixes, d.addSuffix); err != nil {
		return nil, fmt.Errorf("suffix dictionary: %w", err)
	}
	if err := parseTable(suburbs, d.addSuburb); err != nil {
		return nil, fmt.Errorf("suburb dictionary: %w", err)
	}

	d.finish()
	return d, nil
}

func newDictionaries() *Dictionaries {
	return &Dictionaries{
		suburbs:  make(map[string]Suburb),
		streets:  make(map[string][]string),
		suffixes: make(map[string]string),
		titler:   cases.Title(language.English),
	}
}

func loadTable(path string, add func(key, value string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return parseTable(f, add)
}

func parseTable(r io.Reader, add func(key, value string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ",")
		if !ok {
			return fmt.Errorf("malformed line %q", line)
		}
		add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return scanner.Err()
}

func (d *Dictionaries) addStreet(street, suburb string) {
	key := strings.ToLower(street)
	d.streets[key] = append(d.streets[key], suburb)
}

func (d *Dictionaries) addSuffix(abbrev, full string) {
	d.suffixes[strings.ToLower(abbrev)] = full
}

func (d *Dictionaries) addSuburb(name, stateAndPostcode string) {
	state, postcode, _ := strings.Cut(stateAndPostcode, " ")
	d.suburbs[strings.ToLower(name)] = Suburb{
		Name:     d.titler.String(strings.ToLower(name)),
		State:    state,
		Postcode: strings.TrimSpace(postcode),
	}
}

func (d *Dictionaries) finish() {
	d.suburbKeys = sortedKeys(d.suburbs)
	d.streetKeys = make([]string, 0, len(d.streets))
	for k := range d.streets {
		d.streetKeys = append(d.streetKeys, k)
	}
	sort.Strings(d.streetKeys)
}

func sortedKeys(m map[string]Suburb) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Suburb looks up a suburb by exact lowercased name.
func (d *Dictionaries) Suburb(name string) (Suburb, bool) {
	s, ok := d.suburbs[strings.ToLower(name)]
	return s, ok
}

// StreetSuburbs returns the suburbs carrying the given street name. The
// association is informational only; normalization never substitutes it.
func (d *Dictionaries) StreetSuburbs(street string) []string {
	return d.streets[strings.ToLower(street)]
}

// ExpandSuffix expands a street-suffix abbreviation, returning the input
// unchanged when the abbreviation is not in the dictionary.
func (d *Dictionaries) ExpandSuffix(abbrev string) string {
	if full, ok := d.suffixes[strings.ToLower(abbrev)]; ok {
		return full
	}
	return abbrev
}

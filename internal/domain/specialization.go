package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Specialization is the closed set of event categories.
// It is persisted and transported by its canonical name, never by ordinal.
type Specialization int

const (
	SpecializationUnknown Specialization = iota
	SpecializationIT
	SpecializationDesign
	SpecializationMarketing
	SpecializationManagement
	SpecializationScience
	SpecializationArt
	SpecializationSport
	SpecializationMusic
	SpecializationEducation
	SpecializationOther
)

var specializationNames = map[Specialization]string{
	SpecializationIT:         "IT",
	SpecializationDesign:     "DESIGN",
	SpecializationMarketing:  "MARKETING",
	SpecializationManagement: "MANAGEMENT",
	SpecializationScience:    "SCIENCE",
	SpecializationArt:        "ART",
	SpecializationSport:      "SPORT",
	SpecializationMusic:      "MUSIC",
	SpecializationEducation:  "EDUCATION",
	SpecializationOther:      "OTHER",
}

var specializationsByName = func() map[string]Specialization {
	m := make(map[string]Specialization, len(specializationNames))
	for s, name := range specializationNames {
		m[name] = s
	}
	return m
}()

// Specializations returns every valid member in declaration order.
func Specializations() []Specialization {
	out := make([]Specialization, 0, len(specializationNames))
	for s := SpecializationIT; s <= SpecializationOther; s++ {
		out = append(out, s)
	}
	return out
}

// ParseSpecialization resolves a canonical name (case-insensitive).
func ParseSpecialization(name string) (Specialization, error) {
	s, ok := specializationsByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return SpecializationUnknown, fmt.Errorf("%w: unknown specialization %q", ErrInvalidInput, name)
	}
	return s, nil
}

// Valid reports whether s is a member of the enumeration.
func (s Specialization) Valid() bool {
	_, ok := specializationNames[s]
	return ok
}

func (s Specialization) String() string {
	if name, ok := specializationNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Specialization(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler; used by encoding/json.
func (s Specialization) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: invalid specialization %d", ErrInvalidInput, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Specialization) UnmarshalText(b []byte) error {
	v, err := ParseSpecialization(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Value implements driver.Valuer so the canonical name is stored.
func (s Specialization) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: invalid specialization %d", ErrInvalidInput, int(s))
	}
	return s.String(), nil
}

// Scan implements sql.Scanner.
func (s *Specialization) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("scan specialization: unsupported type %T", src)
	}
}

// SpecializationNames maps a set to its canonical names, e.g. for an IN / ANY filter.
func SpecializationNames(set []Specialization) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		out = append(out, s.String())
	}
	return out
}

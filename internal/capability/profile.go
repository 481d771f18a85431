package capability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidProfile is returned when a profile is missing a dimension or
// holds an out-of-range score. Callers must not proceed with such a profile.
var ErrInvalidProfile = errors.New("invalid capability profile")

// MinScore and MaxScore bound a proficiency score.
const (
	MinScore = 0
	MaxScore = 100
)

// Profile maps each dimension to a proficiency score in [0,100].
type Profile map[Dimension]int

// Validate checks that every dimension has exactly one in-range score and
// that no unknown dimension is present.
func (p Profile) Validate() error {
	for _, d := range All {
		score, ok := p[d]
		if !ok {
			return fmt.Errorf("%w: missing score for %s", ErrInvalidProfile, d)
		}
		if score < MinScore || score > MaxScore {
			return fmt.Errorf("%w: score %d for %s out of range", ErrInvalidProfile, score, d)
		}
	}
	for d := range p {
		if !d.Valid() {
			return fmt.Errorf("%w: unknown dimension %q", ErrInvalidProfile, d)
		}
	}
	return nil
}

// Weakest returns the dimension with the lowest score. Ties go to the
// dimension that comes first in canonical order.
func Weakest(p Profile) (Dimension, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	weakest := All[0]
	for _, d := range All[1:] {
		if p[d] < p[weakest] {
			weakest = d
		}
	}
	return weakest, nil
}

// String renders the profile in canonical order, e.g. "R1=85,R2=72,R3=65,R4=40".
func (p Profile) String() string {
	parts := make([]string, 0, len(All))
	for _, d := range All {
		if score, ok := p[d]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", d, score))
		}
	}
	return strings.Join(parts, ",")
}

// Clone returns an independent copy.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for d, s := range p {
		out[d] = s
	}
	return out
}

// ParseProfile parses "R1=85,R2=72,R3=65,R4=40". The result is validated.
func ParseProfile(s string) (Profile, error) {
	p := make(Profile, len(All))
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed entry %q", ErrInvalidProfile, field)
		}
		d, err := Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		if _, dup := p[d]; dup {
			return nil, fmt.Errorf("%w: duplicate score for %s", ErrInvalidProfile, d)
		}
		score, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("%w: score for %s: %v", ErrInvalidProfile, d, err)
		}
		p[d] = score
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromMap converts a string-keyed map (as decoded from JSON or config) into
// a validated Profile.
func FromMap(m map[string]int) (Profile, error) {
	p := make(Profile, len(m))
	for k, v := range m {
		d, err := Parse(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		p[d] = v
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SampleProfile is the demo learner used when no profile is configured.
func SampleProfile() Profile {
	return Profile{R1: 85, R2: 72, R3: 65, R4: 40}
}

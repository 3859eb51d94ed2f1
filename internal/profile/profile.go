// Package profile names reusable derivation parameter sets. Profiles hold
// cost parameters only, never secrets, salts or keys.
package profile

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mozilla-services/android-sync/internal/kdf"
)

var (
	ErrInvalidName      = errors.New("profile name must be 1-64 characters of a-z, 0-9, '.', '_' or '-'")
	ErrUnknownAlgorithm = errors.New("algorithm must be pbkdf2-sha256 or scrypt")
	ErrNotFound         = errors.New("profile not found")
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// Profile is a named set of derivation parameters.
type Profile struct {
	Name        string        `yaml:"name"`
	Algorithm   kdf.Algorithm `yaml:"algorithm"`
	Iterations  uint32        `yaml:"iterations,omitempty"`
	N           uint64        `yaml:"n,omitempty"`
	R           uint32        `yaml:"r,omitempty"`
	P           uint32        `yaml:"p,omitempty"`
	Length      uint32        `yaml:"length"`
	Description string        `yaml:"description,omitempty"`
}

// Params converts the profile into derivation parameters.
func (p Profile) Params() (kdf.Params, error) {
	switch p.Algorithm {
	case kdf.AlgPBKDF2SHA256:
		return kdf.PBKDF2Params{Iterations: p.Iterations, KeyLen: p.Length}, nil
	case kdf.AlgScrypt:
		return kdf.ScryptParams{N: p.N, R: p.R, P: p.P, KeyLen: p.Length}, nil
	}
	return nil, fmt.Errorf("profile %q: %w", p.Name, ErrUnknownAlgorithm)
}

// FromParams builds a profile around existing parameters.
func FromParams(name string, params kdf.Params) Profile {
	p := Profile{Name: name, Algorithm: params.Algorithm(), Length: params.KeyLength()}
	switch v := params.(type) {
	case kdf.PBKDF2Params:
		p.Iterations = v.Iterations
	case kdf.ScryptParams:
		p.N, p.R, p.P = v.N, v.R, v.P
	}
	return p
}

// CheckName reports whether name can identify a profile.
func CheckName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// Validate checks the name and the algorithm's parameter constraints. It
// does not apply a memory ceiling; that happens at derivation time.
func (p Profile) Validate() error {
	if err := CheckName(p.Name); err != nil {
		return err
	}
	params, err := p.Params()
	if err != nil {
		return err
	}
	switch v := params.(type) {
	case kdf.PBKDF2Params:
		err = v.Validate()
	case kdf.ScryptParams:
		err = v.Validate()
	}
	if err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

type document struct {
	Profiles []Profile `yaml:"profiles"`
}

// Decode reads a YAML document of the form "profiles: [...]" and validates
// every entry. Duplicate names are rejected.
func Decode(r io.Reader) ([]Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding profiles: %w", err)
	}
	seen := make(map[string]bool, len(doc.Profiles))
	for _, p := range doc.Profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
	}
	return doc.Profiles, nil
}

// Encode writes profiles as a YAML document readable by Decode.
func Encode(w io.Writer, profiles []Profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Profiles: profiles}); err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}
	return enc.Close()
}

// Sort orders profiles by name.
func Sort(profiles []Profile) {
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
}

package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gpl/internal/ir"
)

// Scenario is a scripted sequence of lifecycle operations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Keys maps a key alias to the fill byte of a deterministic test key.
	Keys map[string]int `yaml:"keys"`

	// Users are stored before the first step runs.
	Users []UserDef `yaml:"users"`

	// Profiles are derived, not stored, so steps can name their slots.
	Profiles []ProfileDef `yaml:"profiles,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// ClockStart is the first event timestamp. Zero means DefaultClockStart.
	ClockStart int64 `yaml:"clock_start,omitempty"`
}

// DefaultClockStart is the first timestamp a scenario's clock returns.
const DefaultClockStart = 1700000000

// UserDef seeds one user record.
type UserDef struct {
	Alias     string `yaml:"alias"`
	Authority string `yaml:"authority"`
	Salt      int    `yaml:"salt"`
}

// ProfileDef names the slot for (namespace, user) without creating it.
type ProfileDef struct {
	Alias     string `yaml:"alias"`
	Namespace string `yaml:"namespace"`
	User      string `yaml:"user"`
}

// Step is one create or delete.
type Step struct {
	// Op is "create" or "delete".
	Op string `yaml:"op"`

	// Caller is the key alias presented as the authority.
	Caller string `yaml:"caller"`

	// Signer signs the request. Defaults to Caller.
	Signer string `yaml:"signer,omitempty"`

	// User is the user alias (or any alias) passed as the user reference.
	User string `yaml:"user"`

	// Namespace is a namespace name or a raw numeric tag (create only).
	Namespace string `yaml:"namespace,omitempty"`

	// Profile is the profile alias to delete (delete only).
	Profile string `yaml:"profile,omitempty"`

	// As registers the created profile's address under this alias.
	As string `yaml:"as,omitempty"`

	// Expect is "ok" or an error code such as UNAUTHORIZED.
	Expect string `yaml:"expect"`
}

// Assertion validates the final event log or runtime state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is an event kind (event_count, event_contains).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of events (event_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected kind sequence (event_sequence).
	Kinds []string `yaml:"kinds,omitempty"`

	// Fields are matched against an event's aliased payload (event_contains).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Profile is the alias checked by profile_exists.
	Profile string `yaml:"profile,omitempty"`

	// Exists is the expected occupancy (profile_exists).
	Exists bool `yaml:"exists,omitempty"`

	// Key and Bytes are checked by refunded.
	Key   string `yaml:"key,omitempty"`
	Bytes int    `yaml:"bytes,omitempty"`
}

// Step operations.
const (
	OpCreate = "create"
	OpDelete = "delete"
)

// Assertion type constants.
const (
	AssertEventCount    = "event_count"
	AssertEventSequence = "event_sequence"
	AssertEventContains = "event_contains"
	AssertProfileExists = "profile_exists"
	AssertRefunded      = "refunded"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and alias references.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	aliases := make(map[string]bool)
	claim := func(where, alias string) error {
		if alias == "" {
			return fmt.Errorf("%s: alias is required", where)
		}
		if aliases[alias] {
			return fmt.Errorf("%s: alias %q is already defined", where, alias)
		}
		aliases[alias] = true
		return nil
	}

	for name, fill := range s.Keys {
		if fill < 1 || fill > 255 {
			return fmt.Errorf("keys[%s]: fill must be in 1..255, got %d", name, fill)
		}
		if err := claim("keys", name); err != nil {
			return err
		}
	}

	for i, u := range s.Users {
		where := fmt.Sprintf("users[%d]", i)
		if err := claim(where, u.Alias); err != nil {
			return err
		}
		if _, ok := s.Keys[u.Authority]; !ok {
			return fmt.Errorf("%s: unknown key %q", where, u.Authority)
		}
		if u.Salt < 0 || u.Salt > 255 {
			return fmt.Errorf("%s: salt must be in 0..255, got %d", where, u.Salt)
		}
	}

	for i, p := range s.Profiles {
		where := fmt.Sprintf("profiles[%d]", i)
		if err := claim(where, p.Alias); err != nil {
			return err
		}
		if _, err := ir.ParseNamespace(p.Namespace); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		if !aliases[p.User] {
			return fmt.Errorf("%s: unknown user %q", where, p.User)
		}
	}

	for i, step := range s.Steps {
		where := fmt.Sprintf("steps[%d]", i)
		if _, ok := s.Keys[step.Caller]; !ok {
			return fmt.Errorf("%s: unknown caller key %q", where, step.Caller)
		}
		if step.Signer != "" {
			if _, ok := s.Keys[step.Signer]; !ok {
				return fmt.Errorf("%s: unknown signer key %q", where, step.Signer)
			}
		}
		if !aliases[step.User] {
			return fmt.Errorf("%s: unknown user %q", where, step.User)
		}
		if step.Expect == "" {
			return fmt.Errorf("%s: expect is required", where)
		}

		switch step.Op {
		case OpCreate:
			if step.Namespace == "" {
				return fmt.Errorf("%s: namespace is required for create", where)
			}
			if step.As != "" {
				// Failed creates leave the alias unbound; later references
				// are caught at run time.
				if aliases[step.As] {
					return fmt.Errorf("%s: alias %q is already defined", where, step.As)
				}
				aliases[step.As] = true
			}
		case OpDelete:
			if !aliases[step.Profile] {
				return fmt.Errorf("%s: unknown profile %q", where, step.Profile)
			}
		default:
			return fmt.Errorf("%s: unknown op %q", where, step.Op)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, aliases); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, aliases map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventSequence:
		// An empty kinds list asserts an empty log.
	case AssertEventContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_contains", index)
		}
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields are required for event_contains", index)
		}
	case AssertProfileExists:
		if !aliases[a.Profile] {
			return fmt.Errorf("assertions[%d]: unknown profile %q", index, a.Profile)
		}
	case AssertRefunded:
		if !aliases[a.Key] {
			return fmt.Errorf("assertions[%d]: unknown key %q", index, a.Key)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

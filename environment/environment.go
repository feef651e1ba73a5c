// Package environment reads the configuration of pgclone from environment
// variables.
package environment

import (
	"os"
	"sort"
	"sync"
)

// Environmenter is the source of environment variables.
//
// ForProduction reads from the process environment, ForTests from a map.
type Environmenter interface {
	Getenv(key string) string
	UseVariable(v Variable)
}

// Variable is an environment variable with a default value.
type Variable struct {
	Key          string
	DefaultValue string
	Description  string
}

// NewVariable initializes a Variable.
func NewVariable(key, defaultValue, description string) Variable {
	return Variable{
		Key:          key,
		DefaultValue: defaultValue,
		Description:  description,
	}
}

// Value returns the value of the variable or its default, if the variable is
// empty.
func (v Variable) Value(lookup Environmenter) string {
	lookup.UseVariable(v)

	if value := lookup.Getenv(v.Key); value != "" {
		return value
	}
	return v.DefaultValue
}

// ForProduction uses the process environment.
type ForProduction struct{}

// Getenv calls os.Getenv.
func (ForProduction) Getenv(key string) string {
	return os.Getenv(key)
}

// UseVariable does nothing.
func (ForProduction) UseVariable(Variable) {}

// ForTests is an Environmenter backed by a map. It remembers all variables
// that were used.
type ForTests struct {
	mu   sync.Mutex
	data map[string]string
	used map[string]Variable
}

// NewForTests creates a ForTests environment from a map.
func NewForTests(data map[string]string) *ForTests {
	return &ForTests{
		data: data,
		used: make(map[string]Variable),
	}
}

// Getenv returns the value from the map.
func (e *ForTests) Getenv(key string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data[key]
}

// UseVariable records the variable.
func (e *ForTests) UseVariable(v Variable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.used[v.Key] = v
}

// Used returns the keys of all variables that where read, sorted.
func (e *ForTests) Used() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]string, 0, len(e.used))
	for k := range e.used {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

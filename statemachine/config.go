package statemachine

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigLoader is an interface for loading configurations by name.
// Applications can implement this to provide embedded or custom config loading.
type ConfigLoader interface {
	LoadByName(name string) ([]byte, error)
	ListAvailable() []string
}

// defaultConfigLoader is the global config loader used by LoadConfig.
// Applications can set this to provide embedded configs.
var defaultConfigLoader ConfigLoader //nolint:gochecknoglobals

// SetConfigLoader sets the default config loader for name-based loading.
// This allows applications to provide embedded configs or custom loading logic.
func SetConfigLoader(loader ConfigLoader) {
	defaultConfigLoader = loader
}

// Config defines the structure of a machine rule table. Guards and effects
// are code, not configuration; rules loaded from config carry nil hooks and
// the Builder attaches them by (from, trigger).
type Config struct {
	Name    string       `json:"name"    yaml:"name"`
	Initial string       `json:"initial" yaml:"initial"`
	Rules   []RuleConfig `json:"rules"   yaml:"rules"`
}

// RuleConfig defines the configuration for a single rule.
type RuleConfig struct {
	From    string `json:"from"    yaml:"from"`
	Trigger string `json:"trigger" yaml:"trigger"`
	To      string `json:"to"      yaml:"to"`
}

// LoadConfig loads a machine configuration by path or name.
// Supports two modes:
//   - Path mode: Pass a file path (containing '/', '\', or ending in '.yaml')
//     to load from the filesystem.
//     Example: LoadConfig("examples/review.yaml")
//   - Name mode: Pass a bare name to load via the registered ConfigLoader.
//     Example: LoadConfig("review_workflow")
//
// For name mode to work, you must call SetConfigLoader() first with an
// implementation.
func LoadConfig(pathOrName string) (*Config, error) {
	isPath := strings.Contains(pathOrName, "/") ||
		strings.Contains(pathOrName, `\`) ||
		strings.HasSuffix(strings.ToLower(pathOrName), ".yaml")

	if isPath {
		data, err := os.ReadFile(pathOrName) //nolint:gosec // Intentional path-based loading
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", pathOrName, err)
		}

		return LoadConfigFromBytes(data)
	}

	if defaultConfigLoader == nil {
		return nil, ErrNoConfigLoader
	}

	data, err := defaultConfigLoader.LoadByName(pathOrName)
	if err != nil {
		available := defaultConfigLoader.ListAvailable()

		return nil, fmt.Errorf("failed to load config %q (available: %v): %w", pathOrName, available, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads a machine configuration from YAML bytes.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from an embedded filesystem.
// This is a convenience function for loading from embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks if the configuration is valid: named, complete rules, no
// duplicate (from, trigger) pairs, and every named state reachable from the
// initial state.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrConfigNameRequired
	}

	if c.Initial == "" {
		return ErrInitialStateRequired
	}

	if len(c.Rules) == 0 {
		return ErrNoRules
	}

	keys := make(map[ruleKey]bool)

	for i, rule := range c.Rules {
		if rule.From == "" || rule.To == "" {
			return fmt.Errorf("rule %d: %w", i, ErrStateNameRequired)
		}

		if rule.Trigger == "" {
			return fmt.Errorf("rule %d: %w", i, ErrTriggerNameRequired)
		}

		key := ruleKey{from: State(rule.From), trigger: Trigger(rule.Trigger)}
		if keys[key] {
			return fmt.Errorf("rule %d: %w: %s/%s", i, ErrDuplicateRule, rule.From, rule.Trigger)
		}

		keys[key] = true
	}

	reachable := c.findReachableStates()

	for _, rule := range c.Rules {
		if !reachable[rule.From] {
			return fmt.Errorf("%w: %s", ErrStateUnreachable, rule.From)
		}

		if !reachable[rule.To] {
			return fmt.Errorf("%w: %s", ErrStateUnreachable, rule.To)
		}
	}

	return nil
}

// Machine builds a machine from the validated configuration. All rules carry
// nil guards and effects; use the Builder to attach hooks.
func (c *Config) Machine(opts ...Option) (*Machine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rules := make([]Rule, len(c.Rules))
	for i, rule := range c.Rules {
		rules[i] = Rule{
			From:    State(rule.From),
			Trigger: Trigger(rule.Trigger),
			To:      State(rule.To),
		}
	}

	if c.Name != "" {
		opts = append([]Option{WithName(c.Name)}, opts...)
	}

	return New(State(c.Initial), rules, opts...)
}

// findReachableStates finds all states reachable from the initial state.
func (c *Config) findReachableStates() map[string]bool {
	reachable := make(map[string]bool)
	reachable[c.Initial] = true

	// Simple BFS over the rule edges.
	queue := []string{c.Initial}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, rule := range c.Rules {
			if rule.From == current && !reachable[rule.To] {
				reachable[rule.To] = true
				queue = append(queue, rule.To)
			}
		}
	}

	return reachable
}

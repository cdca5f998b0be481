package alerting

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry holds the static rule set. Rules are validated when added
// and only toggled via SetEnabled afterwards, never mutated.
type Registry struct {
	rules map[string]*AlertRule
	mu    sync.RWMutex
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]*AlertRule),
	}
}

// ruleSpec is the YAML shape of a rule definition. Durations are
// strings in time.ParseDuration form.
type ruleSpec struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	Severity  string `yaml:"severity"`
	Enabled   *bool  `yaml:"enabled"`
	Cooldown  string `yaml:"cooldown"`
	Escalate  string `yaml:"escalation_delay"`
	Condition struct {
		Metric              string  `yaml:"metric"`
		Operator            string  `yaml:"operator"`
		Threshold           float64 `yaml:"threshold"`
		Pattern             string  `yaml:"pattern"`
		TimeWindow          string  `yaml:"time_window"`
		ConsecutiveFailures int     `yaml:"consecutive_failures"`
	} `yaml:"condition"`
	Channels []struct {
		Type    string            `yaml:"type"`
		Enabled *bool             `yaml:"enabled"`
		Config  map[string]string `yaml:"config"`
	} `yaml:"channels"`
}

type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// LoadFromFile reads rule definitions from a YAML file and registers
// them. Invalid rules are rejected here, before any evaluation occurs.
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing rules file: %w", err)
	}

	for i, spec := range file.Rules {
		rule, err := specToRule(spec)
		if err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, spec.ID, err)
		}
		if err := r.Add(rule); err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, spec.ID, err)
		}
	}
	return nil
}

func specToRule(spec ruleSpec) (AlertRule, error) {
	rule := AlertRule{
		ID:       spec.ID,
		Name:     spec.Name,
		Category: spec.Category,
		Severity: Severity(spec.Severity),
		Enabled:  true,
		Condition: Condition{
			Metric:              spec.Condition.Metric,
			Operator:            Operator(spec.Condition.Operator),
			Threshold:           spec.Condition.Threshold,
			Pattern:             spec.Condition.Pattern,
			ConsecutiveFailures: spec.Condition.ConsecutiveFailures,
		},
	}
	if spec.Enabled != nil {
		rule.Enabled = *spec.Enabled
	}

	var err error
	if rule.Condition.TimeWindow, err = parseDuration(spec.Condition.TimeWindow, 5*time.Minute); err != nil {
		return rule, fmt.Errorf("time_window: %w", err)
	}
	if rule.CooldownPeriod, err = parseDuration(spec.Cooldown, 0); err != nil {
		return rule, fmt.Errorf("cooldown: %w", err)
	}
	if rule.EscalationDelay, err = parseDuration(spec.Escalate, 0); err != nil {
		return rule, fmt.Errorf("escalation_delay: %w", err)
	}

	for _, ch := range spec.Channels {
		channel := NotificationChannel{
			Type:    ChannelType(ch.Type),
			Enabled: true,
			Config:  ch.Config,
		}
		if ch.Enabled != nil {
			channel.Enabled = *ch.Enabled
		}
		rule.Channels = append(rule.Channels, channel)
	}

	return rule, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

// Add validates and registers a rule.
func (r *Registry) Add(rule AlertRule) error {
	if err := ValidateRule(rule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; exists {
		return fmt.Errorf("duplicate rule id %q", rule.ID)
	}
	r.rules[rule.ID] = &rule
	return nil
}

// ValidateRule rejects malformed rule definitions.
func ValidateRule(rule AlertRule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if rule.Category == "" {
		return fmt.Errorf("rule category is required")
	}
	if !rule.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", rule.Severity)
	}
	if rule.Condition.Metric == "" {
		return fmt.Errorf("condition metric is required")
	}
	if !rule.Condition.Operator.Valid() {
		return fmt.Errorf("unknown operator %q", rule.Condition.Operator)
	}
	if rule.Condition.Operator.Categorical() {
		if rule.Condition.Pattern == "" {
			return fmt.Errorf("operator %q requires a pattern", rule.Condition.Operator)
		}
	} else if rule.Condition.Pattern != "" {
		return fmt.Errorf("operator %q does not take a pattern", rule.Condition.Operator)
	}
	if rule.Condition.TimeWindow <= 0 {
		return fmt.Errorf("condition time_window must be positive")
	}
	if rule.Condition.ConsecutiveFailures < 0 {
		return fmt.Errorf("consecutive_failures must not be negative")
	}
	if rule.CooldownPeriod < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	if rule.EscalationDelay < 0 {
		return fmt.Errorf("escalation_delay must not be negative")
	}
	for i, ch := range rule.Channels {
		switch ch.Type {
		case ChannelSlack, ChannelEmail, ChannelWebhook, ChannelPagerDuty:
		default:
			return fmt.Errorf("channel %d: unknown type %q", i, ch.Type)
		}
	}
	return nil
}

// Get returns a copy of the rule with the given id.
func (r *Registry) Get(id string) (AlertRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return AlertRule{}, false
	}
	return *rule, true
}

// EnabledForMetric returns the enabled rules whose condition watches
// the given metric.
func (r *Registry) EnabledForMetric(metric string) []AlertRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rules []AlertRule
	for _, rule := range r.rules {
		if rule.Enabled && rule.Condition.Metric == metric {
			rules = append(rules, *rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// SetEnabled toggles a rule. It returns false for an unknown id.
func (r *Registry) SetEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[id]
	if !ok {
		return false
	}
	rule.Enabled = enabled
	return true
}

// All returns every registered rule sorted by id.
func (r *Registry) All() []AlertRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]AlertRule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, *rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

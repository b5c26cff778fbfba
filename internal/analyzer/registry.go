package analyzer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// RuleInfo is the registry's public view of a rule, used by the metadata API.
type RuleInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Core        bool    `json:"core"`
}

// Registry holds the scoring rules an engine can run. Rules are registered
// explicitly at start-up; after Freeze the registry is read-only and safe for
// concurrent use without further locking.
type Registry struct {
	mu     sync.Mutex
	frozen bool
	rules  map[string]Rule
	order  []string
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule. It rejects empty IDs, duplicate IDs, negative weights
// and registration after Freeze.
func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("register rule: registry is frozen")
	}
	id := strings.TrimSpace(rule.ID())
	if id == "" {
		return fmt.Errorf("register rule: %w", models.ErrInvalidRuleID)
	}
	if strings.TrimSpace(rule.Name()) == "" {
		return fmt.Errorf("register rule %q: %w", id, models.ErrInvalidRuleName)
	}
	if rule.Weight() < 0 {
		return fmt.Errorf("register rule %q: %w", id, models.ErrInvalidWeight)
	}
	if _, exists := r.rules[id]; exists {
		return fmt.Errorf("register rule %q: %w", id, models.ErrAlreadyRegistered)
	}

	r.rules[id] = rule
	r.order = append(r.order, id)
	return nil
}

// MustRegister registers a rule and panics on failure. Intended for static
// start-up wiring where a failure is a programming error.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Get returns the rule for id.
func (r *Registry) Get(id string) (Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, exists := r.rules[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidRuleID, id)
	}
	return rule, nil
}

// Select resolves the rules to run for one analysis. An empty id list selects
// every core rule (weight > 0) in registration order. Unknown IDs fail the
// whole selection.
func (r *Registry) Select(ids []string) ([]Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(ids) == 0 {
		var core []Rule
		for _, id := range r.order {
			if rule := r.rules[id]; rule.Weight() > 0 {
				core = append(core, rule)
			}
		}
		return core, nil
	}

	selected := make([]Rule, 0, len(ids))
	for _, id := range ids {
		rule, exists := r.rules[id]
		if !exists {
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidRuleID, id)
		}
		selected = append(selected, rule)
	}
	return selected, nil
}

// List returns metadata for every registered rule in registration order.
func (r *Registry) List() []RuleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]RuleInfo, 0, len(r.order))
	for _, id := range r.order {
		rule := r.rules[id]
		infos = append(infos, RuleInfo{
			ID:          rule.ID(),
			Name:        rule.Name(),
			Description: rule.Description(),
			Weight:      rule.Weight(),
			Core:        rule.Weight() > 0,
		})
	}
	return infos
}

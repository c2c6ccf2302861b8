package relay

import (
	"fmt"
	"sort"

	"github.com/solatis/ntfyrelay/internal/core/config"
	"github.com/solatis/ntfyrelay/internal/rules"
	"github.com/solatis/ntfyrelay/internal/types"
)

// Registry holds compiled topics by destination name.
// Fully built by NewRegistry and never mutated afterwards, so lookups need
// no locking.
type Registry struct {
	topics map[string]types.Topic
}

// NewRegistry compiles every configured topic.
// Malformed filters do not fail construction: they compile to never-matching
// groups and are returned as problems for the caller to log.
func NewRegistry(topics map[string]config.TopicConfig) (*Registry, []error) {
	r := &Registry{topics: make(map[string]types.Topic, len(topics))}
	var problems []error

	for _, name := range sortedNames(topics) {
		tc := topics[name]
		topic := types.DefaultTopic(name)
		if tc.Format != nil {
			topic.Format = *tc.Format
		}
		if tc.Title != nil {
			topic.Title = *tc.Title
		}

		groups, errs := rules.CompileFilters(tc.Filters)
		for _, err := range errs {
			problems = append(problems, fmt.Errorf("topic %q %w", name, err))
		}
		topic.Groups = groups
		r.topics[name] = topic
	}

	return r, problems
}

// Topic returns the configuration for name, or the default topic
// (no filters, raw event message, empty title) when name is not configured.
func (r *Registry) Topic(name string) types.Topic {
	if t, ok := r.topics[name]; ok {
		return t
	}
	return types.DefaultTopic(name)
}

// Configured reports whether name has its own configuration.
func (r *Registry) Configured(name string) bool {
	_, ok := r.topics[name]
	return ok
}

// Names lists configured topics in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.topics))
	for name := range r.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedNames(topics map[string]config.TopicConfig) []string {
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

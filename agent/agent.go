package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/crewops/observe"
)

// ErrUnknownAgent indicates a request for a type the factory has no
// definition for.
var ErrUnknownAgent = errors.New("agent: unknown agent type")

// Definition describes a crew member: who it is, what it pursues, and
// which tool classes it is allowed to invoke.
type Definition struct {
	Name      string
	Role      string
	Goal      string
	Backstory string
	Model     string
	Tools     []string
}

// For returns a copy of the definition scoped to a subject, for example
// a domain or a location. The role picks up a "for <subject>" suffix.
func (d Definition) For(subject string) Definition {
	if subject != "" {
		d.Role = d.Role + " for " + subject
	}
	return d
}

// Factory builds agent definitions by type name. The built-in types are
// "seo" and "weather"; Register adds more.
type Factory struct {
	backend observe.Backend

	mu   sync.RWMutex
	defs map[string]Definition
}

// NewFactory builds a factory with the built-in definitions. backend may
// be nil to use the process-wide one.
func NewFactory(backend observe.Backend) *Factory {
	if backend == nil {
		if inst := observe.Instance(); inst != nil {
			backend = inst
		} else {
			backend = observe.NewSystemBackend(observe.Options{})
		}
	}

	f := &Factory{
		backend: backend,
		defs:    make(map[string]Definition),
	}
	f.Register("seo", SEOAnalyst())
	f.Register("weather", WeatherReporter())
	return f
}

// Register adds or replaces a definition under the given type name.
func (f *Factory) Register(name string, def Definition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defs[name] = def
}

// Create builds the definition for the given type, scoped to subject when
// one is given.
func (f *Factory) Create(ctx context.Context, name, subject string) (Definition, error) {
	_, span := f.backend.Trace(ctx, "factory_create_agent", map[string]string{"agent_type": name})

	f.mu.RLock()
	def, ok := f.defs[name]
	f.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownAgent, name)
		span.End(err)
		return Definition{}, err
	}

	span.End(nil)
	return def.For(subject), nil
}

// Names returns the registered type names, sorted.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.defs))
	for name := range f.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SEOAnalyst is the built-in analyst that reads Search Console data and
// verifies keyword visibility.
func SEOAnalyst() Definition {
	return Definition{
		Name: "seo_analyst",
		Role: "SEO Analyst",
		Goal: "Analyze Google Search Console data and verify keyword rankings",
		Backstory: "You are an expert SEO analyst with deep knowledge of search engine " +
			"optimization and keyword research. You excel at analyzing search performance " +
			"data and identifying opportunities to improve visibility.",
		Tools: []string{"gsc", "keyword_search"},
	}
}

// WeatherReporter is the built-in reporter that answers current-conditions
// questions.
func WeatherReporter() Definition {
	return Definition{
		Name: "weather_reporter",
		Role: "Weather Reporter",
		Goal: "Provide accurate and concise temperature information",
		Backstory: "You are an expert meteorologist with years of experience in weather " +
			"reporting. Your mission is to help people understand current conditions " +
			"quickly and accurately.",
		Tools: []string{"weather"},
	}
}

package agent

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/jonwraymond/crewops/observe"
)

func newTestBackend() *observe.SystemBackend {
	return observe.NewSystemBackend(observe.Options{Writer: io.Discard})
}

func TestFactory_CreateBuiltins(t *testing.T) {
	f := NewFactory(newTestBackend())
	ctx := context.Background()

	seo, err := f.Create(ctx, "seo", "")
	if err != nil {
		t.Fatalf("Create(seo) failed: %v", err)
	}
	if seo.Role != "SEO Analyst" {
		t.Errorf("role = %q", seo.Role)
	}
	if len(seo.Tools) != 2 {
		t.Errorf("seo tools = %v, want gsc and keyword_search", seo.Tools)
	}

	weather, err := f.Create(ctx, "weather", "")
	if err != nil {
		t.Fatalf("Create(weather) failed: %v", err)
	}
	if len(weather.Tools) != 1 || weather.Tools[0] != "weather" {
		t.Errorf("weather tools = %v", weather.Tools)
	}
}

func TestFactory_SubjectScopesRole(t *testing.T) {
	f := NewFactory(newTestBackend())

	def, err := f.Create(context.Background(), "seo", "example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if def.Role != "SEO Analyst for example.com" {
		t.Errorf("role = %q", def.Role)
	}

	// The registered definition is untouched.
	again, _ := f.Create(context.Background(), "seo", "")
	if again.Role != "SEO Analyst" {
		t.Errorf("registered role mutated to %q", again.Role)
	}
}

func TestFactory_UnknownType(t *testing.T) {
	f := NewFactory(newTestBackend())

	_, err := f.Create(context.Background(), "astrologer", "")
	if !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("error = %v, want ErrUnknownAgent", err)
	}
}

func TestFactory_RegisterAndNames(t *testing.T) {
	f := NewFactory(newTestBackend())
	f.Register("custom", Definition{Name: "custom", Role: "Custom"})

	want := []string{"custom", "seo", "weather"}
	if got := f.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	def, err := f.Create(context.Background(), "custom", "")
	if err != nil {
		t.Fatalf("Create(custom) failed: %v", err)
	}
	if def.Role != "Custom" {
		t.Errorf("role = %q", def.Role)
	}
}

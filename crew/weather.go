package crew

import (
	"context"
	"fmt"

	"github.com/jonwraymond/crewops/agent"
	"github.com/jonwraymond/crewops/observe"
	"github.com/jonwraymond/crewops/tools"
)

// NewWeatherCrew builds the single-task weather pipeline for a location.
func NewWeatherCrew(weather *tools.WeatherTool, backend observe.Backend, location string) *Crew {
	report := Task{
		Name:        "report_weather",
		Description: "Report current conditions for " + location,
		Run: func(ctx context.Context, _ string) (string, error) {
			conditions, err := weather.Report(ctx, location)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Current weather in %s: %s", location, conditions), nil
		},
	}

	return New("weather", backend, []Task{report},
		WithAgents(agent.WeatherReporter().For(location)))
}

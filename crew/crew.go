package crew

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/crewops/agent"
	"github.com/jonwraymond/crewops/observe"
)

// ErrNoTasks indicates a crew was run without any tasks.
var ErrNoTasks = errors.New("crew: no tasks to run")

// Task is one unit of crew work. Run receives the previous task's output
// (or the crew input for the first task) and produces the next input.
type Task struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

// Engine executes a crew's task list. The sequencing strategy is the
// engine's decision; the crew only owns observability around the run.
type Engine interface {
	Execute(ctx context.Context, tasks []Task, input string) (string, error)
}

// Sequential runs tasks in declaration order, piping each task's output
// into the next.
type Sequential struct{}

// Execute implements Engine.
func (Sequential) Execute(ctx context.Context, tasks []Task, input string) (string, error) {
	out := input
	for _, task := range tasks {
		var err error
		out, err = task.Run(ctx, out)
		if err != nil {
			return "", fmt.Errorf("task %s: %w", task.Name, err)
		}
	}
	return out, nil
}

var _ Engine = Sequential{}

// Crew is a named task pipeline with the agents that staff it.
type Crew struct {
	name    string
	agents  []agent.Definition
	tasks   []Task
	backend observe.Backend
	engine  Engine
}

// Option configures a crew.
type Option func(*Crew)

// WithEngine replaces the sequential default.
func WithEngine(e Engine) Option {
	return func(c *Crew) { c.engine = e }
}

// WithAgents records the definitions staffing the crew.
func WithAgents(defs ...agent.Definition) Option {
	return func(c *Crew) { c.agents = append(c.agents, defs...) }
}

// New builds a crew. backend may be nil to use the process-wide one.
func New(name string, backend observe.Backend, tasks []Task, opts ...Option) *Crew {
	if backend == nil {
		if inst := observe.Instance(); inst != nil {
			backend = inst
		} else {
			backend = observe.NewSystemBackend(observe.Options{})
		}
	}

	c := &Crew{
		name:    name,
		tasks:   tasks,
		backend: backend,
		engine:  Sequential{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the crew name.
func (c *Crew) Name() string { return c.name }

// Agents returns the definitions staffing the crew.
func (c *Crew) Agents() []agent.Definition { return c.agents }

// Run executes the crew under a crew_run_<name> span, recording a success
// or error counter and start/finish logs.
func (c *Crew) Run(ctx context.Context, input string) (string, error) {
	if len(c.tasks) == 0 {
		return "", ErrNoTasks
	}

	tags := map[string]string{"crew": c.name}
	ctx, span := c.backend.Trace(ctx, "crew_run_"+c.name, tags)
	c.backend.Log(observe.LevelInfo, "starting crew "+c.name, map[string]any{"crew": c.name, "tasks": len(c.tasks)})

	result, err := c.engine.Execute(ctx, c.tasks, input)
	span.End(err)

	if err != nil {
		c.backend.RecordMetric("crew_run_error", 1, tags)
		c.backend.Log(observe.LevelError, "crew "+c.name+" failed", map[string]any{"crew": c.name, "error": err.Error()})
		return "", err
	}

	c.backend.RecordMetric("crew_run_success", 1, tags)
	c.backend.Log(observe.LevelInfo, "crew "+c.name+" finished", map[string]any{"crew": c.name})
	return result, nil
}

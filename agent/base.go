package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
)

// Stepper supplies the think/act pair of a concrete agent. Think decides
// whether an action is needed; Act performs it and returns the observation.
type Stepper interface {
	Think(ctx context.Context) (bool, error)
	Act(ctx context.Context) (string, error)
}

// Agent is the surface flows and runners depend on.
type Agent interface {
	Name() string
	State() core.AgentState
	Run(ctx context.Context, request string) (string, error)
}

// Options hold the shared configuration of agents.
type Options struct {
	Name           string
	Description    string
	SystemPrompt   string
	NextStepPrompt string
	MaxSteps       int
	MaxMessages    int
	Logger         logging.Logger
}

// BaseAgent carries the shared agent state: identity, prompts, the message
// log, the step counter, and the IDLE/RUNNING/FINISHED state machine. Concrete
// agents embed it and install themselves as the Stepper.
//
// A BaseAgent is owned by a single run and must not be shared across
// concurrent runs.
type BaseAgent struct {
	name           string
	description    string
	systemPrompt   string
	nextStepPrompt string
	state          core.AgentState
	currentStep    int
	maxSteps       int
	memory         *core.Memory
	model          model.Model
	logger         logging.Logger
	stepper        Stepper
}

// NewBaseAgent constructs the shared agent core. The concrete agent must call
// SetStepper before Run.
func NewBaseAgent(m model.Model, opts Options) *BaseAgent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 10
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefaultSlogLogger()
	}
	return &BaseAgent{
		name:           opts.Name,
		description:    opts.Description,
		systemPrompt:   opts.SystemPrompt,
		nextStepPrompt: opts.NextStepPrompt,
		state:          core.StateIdle,
		maxSteps:       opts.MaxSteps,
		memory:         core.NewMemory(opts.MaxMessages),
		model:          m,
		logger:         opts.Logger,
	}
}

// Name returns the agent's name.
func (b *BaseAgent) Name() string { return b.name }

// Description returns the agent's description.
func (b *BaseAgent) Description() string { return b.description }

// State returns the current lifecycle state.
func (b *BaseAgent) State() core.AgentState { return b.state }

// SetState overrides the lifecycle state. Used by dispatch hooks (special
// tools, token-limit handling) to force the terminal state.
func (b *BaseAgent) SetState(s core.AgentState) { b.state = s }

// Memory returns the agent's message log.
func (b *BaseAgent) Memory() *core.Memory { return b.memory }

// Model returns the reasoning model backing this agent.
func (b *BaseAgent) Model() model.Model { return b.model }

// Logger returns the agent's logger.
func (b *BaseAgent) Logger() logging.Logger { return b.logger }

// CurrentStep returns the number of steps executed in the current run.
func (b *BaseAgent) CurrentStep() int { return b.currentStep }

// MaxSteps returns the configured step budget.
func (b *BaseAgent) MaxSteps() int { return b.maxSteps }

// SystemPrompt returns the configured system prompt.
func (b *BaseAgent) SystemPrompt() string { return b.systemPrompt }

// NextStepPrompt returns the configured next-step prompt.
func (b *BaseAgent) NextStepPrompt() string { return b.nextStepPrompt }

// SetNextStepPrompt replaces the next-step prompt for subsequent cycles.
func (b *BaseAgent) SetNextStepPrompt(p string) { b.nextStepPrompt = p }

// SetStepper installs the concrete think/act implementation.
func (b *BaseAgent) SetStepper(s Stepper) { b.stepper = s }

// Run executes the ReAct loop: step() is repeated while the agent is RUNNING
// and the step counter is below the configured maximum. Exhausting the budget
// appends a termination note without changing state; a backend failure forces
// FINISHED and is returned to the caller.
func (b *BaseAgent) Run(ctx context.Context, request string) (string, error) {
	if b.state != core.StateIdle {
		return "", fmt.Errorf("cannot run agent from state: %s", b.state)
	}
	if b.stepper == nil {
		return "", fmt.Errorf("agent %s has no stepper installed", b.name)
	}

	if request != "" {
		b.memory.Add(core.UserMessage(request))
	}

	b.state = core.StateRunning
	b.logger.Info("agent.run.start", "agent", b.name, "max_steps", b.maxSteps)

	var results []string
	for b.currentStep < b.maxSteps && b.state == core.StateRunning {
		b.currentStep++

		stepResult, done, err := b.step(ctx)
		if err != nil {
			b.state = core.StateFinished
			b.logger.Error("agent.run.failed", "agent", b.name, "step", b.currentStep, "error", err.Error())
			return "", fmt.Errorf("step %d failed: %w", b.currentStep, err)
		}

		b.logger.Info("agent.step", "agent", b.name, "step", b.currentStep, "result", stepResult)
		results = append(results, fmt.Sprintf("Step %d: %s", b.currentStep, stepResult))

		if done {
			break
		}
	}

	if b.currentStep >= b.maxSteps && b.state == core.StateRunning {
		results = append(results, fmt.Sprintf("Terminated: Reached max steps (%d)", b.maxSteps))
	}

	if len(results) == 0 {
		return "No steps executed", nil
	}
	return strings.Join(results, "\n"), nil
}

// step performs a single think/act cycle. When think reports no action, the
// cycle yields a fixed notice and signals the run loop to stop.
func (b *BaseAgent) step(ctx context.Context) (result string, done bool, err error) {
	shouldAct, err := b.stepper.Think(ctx)
	if err != nil {
		return "", false, err
	}
	if !shouldAct {
		return "Thinking complete - no action needed", true, nil
	}

	result, err = b.stepper.Act(ctx)
	if err != nil {
		return "", false, err
	}
	return result, false, nil
}

// Reset returns the agent to IDLE with a cleared step counter so it can be
// reused for another run. The message log is preserved.
func (b *BaseAgent) Reset() {
	b.state = core.StateIdle
	b.currentStep = 0
}

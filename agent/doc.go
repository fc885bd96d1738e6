// Package agent implements the ReAct execution loop: a base agent with the
// IDLE/RUNNING/FINISHED state machine and step-bounded run loop, a
// tool-calling agent that drives a reasoning model and dispatches proposed
// tool calls, and a planning agent that tracks its own plan progress.
package agent

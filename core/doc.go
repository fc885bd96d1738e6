// Package core defines the shared data model of the taskmesh framework:
// conversation messages, the append-only message log consumed by the
// reasoning model, tool call / tool result values, and the agent state
// machine. Higher layers (tool, agent, flow) depend on core; core depends
// on nothing but the standard library and uuid.
package core

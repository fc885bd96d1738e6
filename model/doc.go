// Package model defines the reasoning-model abstraction used by agents and
// flows. It normalizes provider-specific chat APIs behind a single Model
// interface so downstream logic never branches per vendor. Concrete
// adapters live in the openai and anthropic subpackages; MockModel provides
// a scriptable in-memory implementation for tests and examples.
package model

// Package plan implements plan tracking for multi-step task execution: a
// Plan value with per-step statuses and notes, an in-memory Store keyed by
// plan id, and a tool adapter that exposes the store to reasoning models.
package plan

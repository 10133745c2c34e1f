// Package domain contains the core business entities, value objects, and
// domain logic of the insight generation tracker. It represents the heart of
// the system, independent of any specific infrastructure or delivery
// mechanism. The central entity is GenerationJob, the per-subject record of
// one long-running generation run, together with JobPatch, the partial-update
// value the registry merges on every state change.
package domain

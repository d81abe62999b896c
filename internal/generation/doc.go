// Package generation defines the boundary between the application core and
// the external generation engine. The engine is an opaque, long-running
// collaborator: it receives a structured travel request and eventually
// returns loosely structured text, or fails. Interpreting that text is the
// normalizer's job, not the engine's.
package generation

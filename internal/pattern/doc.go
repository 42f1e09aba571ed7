// Package pattern turns calendar events into candidate lighting patterns.
//
// Each candidate carries a name, a configuration, and an initial confidence
// score. Generation prefers an external designer service given a prompt
// describing the event and the profile's taste; when the designer is absent
// or fails, a deterministic rule-based fallback produces the configuration
// instead, at a fixed confidence of 0.5.
package pattern

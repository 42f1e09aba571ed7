// Package compliance evaluates lighting changes against the rules configured
// on a profile: quiet hours, seasonal color windows, time-graded brightness
// caps, and vibe-gated effect restrictions.
//
// The engine is a pure rule evaluator. It holds the parsed rules from a
// profile's compliance settings and answers point-in-time questions; it never
// mutates its inputs and has no side effects. When compliance is disabled on
// the profile, every check reports fully permitted.
//
// RewriteForCompliance is the one composite operation: given a candidate
// configuration and the time it would apply, it returns a new configuration
// with disallowed colors substituted for warm white, brightness clamped to
// the time-of-day cap, and disallowed effects forced to solid.
package compliance

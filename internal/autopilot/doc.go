// Package autopilot is the scheduling control loop. It decides when to
// regenerate the week's plan, runs the aggregation and generation pipeline,
// applies per-day change budgets, re-blends confidence with learned
// preferences, and then either auto-applies items at their scheduled time or
// surfaces them as pending suggestions, according to the profile's autonomy
// level.
//
// Each enabled profile owns a session holding the in-memory active item list
// and the armed one-shot timers. A one-minute periodic tick backstops the
// timers: items whose time passed fire up to two hours late, later ones are
// dropped silently. The per-item fired flag is shared between the timer and
// the tick so no item can apply twice.
package autopilot

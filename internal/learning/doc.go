// Package learning records user feedback on planned lighting changes and
// derives aggregate preferences from the full feedback history.
//
// Preferences are a cached view: every feedback event triggers a wholesale
// recomputation over the user's history, never an incremental update, so the
// snapshot can always be rebuilt from the records alone. Corrupt records are
// skipped during aggregation rather than aborting the recompute.
package learning

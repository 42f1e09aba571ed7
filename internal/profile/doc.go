// Package profile provides the user profile store for Lumina Core.
//
// A profile holds everything the autopilot needs to plan on a user's
// behalf: the autonomy and vibe settings, change tolerance, favourite
// holidays, custom recurring holidays, followed sports teams, and the
// HOA compliance rules for the installation.
//
// Profiles are read-heavy: the orchestrator reads one at the start of
// every regeneration cycle and writes only the last-generated timestamp
// back. All other mutation comes through the companion app via the API.
package profile

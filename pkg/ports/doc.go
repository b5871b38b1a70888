// Package ports defines the capability interfaces the session's channels
// call out to: video/audio sinks and sources, an input event source, and
// a dashboard listener for media-status and navigation updates. These
// sit at the boundary the session does not own — hardware decode,
// platform audio, a touchscreen driver, a car's UI — and are satisfied
// here only by logging stubs suitable for tests and a bare console build.
package ports

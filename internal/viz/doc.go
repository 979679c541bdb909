// Package viz renders pacing progress in the terminal.
//
// [Monitor] is a Bubble Tea model that follows the [pacing.PaceEvent] stream
// of a running driver, plotting the MRMS history on a log scale alongside the
// latest APD and classifier summary. The plot helpers are shared with the
// non-interactive commands.
//
// # Key Bindings
//
//	T - Cycle color themes
//	? - Show help overlay
//	Q - Quit
package viz

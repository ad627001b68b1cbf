// Package viz renders scan progress and results in the terminal.
//
//   - [WatchModel]: Bubble Tea view that polls a store and shows progress
//   - [StateMap]: one glyph per grid cell, coloured by cell state
//   - [Profile] and [PlotProfile]: an observable along one grid axis, drawn
//     with asciigraph
//
// # Key Bindings
//
//	q     - Quit
//	r     - Refresh now
//	t     - Cycle color themes
package viz

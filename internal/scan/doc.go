// Package scan walks a (mu, sd) grid and computes every cell exactly once
// across any number of cooperating scanners.
//
// Each cell moves through three states, all recorded in a storage.Store:
//
//	Pending  no entry exists
//	Claimed  an empty marker exists; some scanner is computing it
//	Done     the entry holds the seven-field result
//
// A Controller claims cells with the store's atomic create-if-absent and
// skips anything already Claimed or Done, so restarting a scan resumes it
// and several processes (or RunWorkers goroutines) can share one store.
// Cells left Claimed by a crashed scanner stay skipped until ResetClaims
// or ResetCell removes their marker.
//
// # Errors
//
// Store and allocation failures are fatal. Run returns a *CellError naming
// the cell it was working on; the cell is left Claimed.
package scan

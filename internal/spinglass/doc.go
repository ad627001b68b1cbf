// Package spinglass implements the Monte Carlo engine for the
// Sherrington-Kirkpatrick spin glass.
//
// The package is organised around one cell of the (mu, sd) parameter grid:
//
//   - [Couplings]: symmetric, zero-diagonal N×N interaction matrix drawn
//     from a Gaussian of mean mu and scale sd
//   - [Spins]: the ±1 configuration and its Metropolis [Spins.Sweep]
//   - [Sampler]: thermalization sweeps followed by sampling sweeps
//   - [Trajectory]: N×tdim record of the sampled configurations
//   - [Accumulator]: configuration-averaged moments, covariances and
//     energy fluctuations, finalized into [Observables]
//   - [State]: owns all of the above for the lifetime of a cell
//
// # Example
//
//	st, _ := spinglass.NewState(spinglass.Params{N: 64, TDim: 500, ConfNum: 10, Thermal: 500})
//	obs, _ := st.RunCell(ctx, 0.005, 0.1, rng.NewMT(0))
//
// # Thread Safety
//
// A State and everything it owns is NOT thread-safe. Run one State per
// goroutine; states share nothing.
package spinglass

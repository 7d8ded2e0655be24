// Package clocksync merges two captured datasets onto one clock.
//
// Both devices emit a periodic sync event during a shared measurement
// window. Merge aligns the two pulse trains, fits peripheral time to central
// time and rewrites the peripheral side onto the central clock:
//
//  1. collect each side's sync submit timestamps
//  2. align the trains on their first matching pulse interval
//  3. fit central ≈ slope*peripheral + intercept by least squares; keep the
//     line when its MSE is below LinearMSEThreshold, otherwise interpolate
//     piecewise between the aligned pairs without extrapolating
//  4. shift peripheral type ids past the central ids and suffix every name
//  5. keep only events inside the aligned central window, widened by
//     WindowMargin on both sides
//
// Merge is a pure function of its inputs and is safe to run concurrently
// with anything else.
package clocksync

// Package periodic fires clock-aligned cues that are independent of any slot's
// countdown: one on every quarter hour and one at a fixed minute of every hour.
//
// Each trigger is aligned once, on its first run, and then repeats with a fixed
// period measured from its previous run. Drift that accumulates after the first
// alignment is not corrected.
package periodic

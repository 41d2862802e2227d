// Package simulation replays a driver's day under a greedy, model-guided
// dispatch policy and compares it with what the driver actually did.
//
// The day is walked with a clock t starting at midnight. At each step the
// policy looks at the unused candidate trips starting in [t, t+window) and
// takes the one with the highest predicted rating; the clock then jumps to
// the end of that trip. When the window is empty the clock jumps to the
// window end. Because the clock never moves before the end of the last
// selected trip, simulated sequences never overlap.
package simulation

// Package plan defines the sculpt plan produced by evaluating a script.
// A plan is an ordered list of terrain operations that the tessellate
// package replays against a terrain.
package plan

// Package common owns the format primitives shared by every codec in zed.
//
// Ownership boundary:
// - the NDS standard file header and its block table
// - disk magic normalization (sub-block magics are stored byte-reversed)
// - fixed-width Shift-JIS string fields
// - the Game tag selecting Phantom Hourglass or Spirit Tracks semantics
package common

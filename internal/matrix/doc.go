// Package matrix owns the square integer matrix and its wire serialization.
//
// Wire constraint: one byte per cell, row-major. Cells must stay within
// [MinCell, MaxCell]; Encode rejects anything else instead of truncating.
// Decode infers N = floor(sqrt(len(payload))) and drops trailing bytes beyond
// N*N.
package matrix

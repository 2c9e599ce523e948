// Package job owns the server-side transform and its execution handle.
//
// Ownership boundary:
// - the anti-diagonal reflection out[j][i] = in[N-1-i][N-1-j]
// - lane partitioning of the row-major index space
// - the atomic status cell shared with the session
// - the managed task handle retained by the session
//
// A job is the only writer of its output matrix. It publishes the output
// before storing COMPLETED, so any reader that observes COMPLETED through the
// status cell may read the output.
package job

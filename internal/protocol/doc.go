// Package protocol owns the sideswap wire vocabulary.
//
// Ownership boundary:
// - command and status byte values
// - error taxonomy shared by client and server
//
// Sub-packages:
// - frame: length-prefixed matrix frames
// - retry: bounded partial-read retry discipline
package protocol

// Package session owns per-connection server logic.
//
// Ownership boundary:
// - the command/status state machine (Session.Handle)
// - the connection loop: input frame, then one command byte at a time
// - the job handle for the connection's current transform
//
// States: UNKNOWN -> IN_PROGRESS -> COMPLETED | ERR. A START while
// IN_PROGRESS is answered with ERR and launches nothing. An unrecognized
// command byte is answered with ERR and ends the session.
package session

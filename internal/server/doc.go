// Package server accepts matrix clients and runs one protocol session per
// connection. A session that exhausts its read retry budget stops the whole
// listener so the process can exit.
package server

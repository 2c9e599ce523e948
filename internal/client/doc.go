// Package client drives one matrix session against a server: upload once,
// then issue one-byte commands and read the replies.
package client

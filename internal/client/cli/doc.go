// Package cli provides the interactive SafeDrop command-line client.
//
// App wires configuration and the gateway client into a small REPL:
// register or log in, list users, send text or files, read the history
// with a contact, download attachments and hide messages. Downloads land
// in the configured directory.
package cli

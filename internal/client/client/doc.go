// Package client is the CLI's view of the SafeDrop gateway.
//
// GRPCClient manages the connection, injects the access token into every
// call through interceptors and maps gRPC status codes to the sentinel
// errors in errors.go, so callers match them with errors.Is. Attachments
// are streamed in pb.ChunkSize pieces in both directions.
package client

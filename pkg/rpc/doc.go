// Package rpc defines the wire surface between the panel and the core: the
// Core and ExtensionHost gRPC services, their messages, and typed clients and
// server registration helpers. Messages travel as JSON through a codec
// registered under the "json" content subtype, so no generated protobuf code
// is involved.
package rpc

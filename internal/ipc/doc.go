// Package ipc exposes daemon and session control over JSON-RPC on a Unix
// domain socket. The CLI is the primary consumer.
package ipc

// Package mcp provides an MCP (Model Context Protocol) server adapter for
// ChatLens. It lets AI assistants pull context blocks, sessions and
// relationship graphs out of a local chat archive.
package mcp

import "errors"

// ErrMissingContextService is returned when the context service is not provided.
var ErrMissingContextService = errors.New("mcp: context service is required")

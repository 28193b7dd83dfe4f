// Package tools defines the Tool interface for agent capabilities and the
// read-only Registry the reasoning loop dispatches against. Each tool declares
// a name, a description and a parameter schema; registration happens once at
// startup, before the registry is frozen.
package tools

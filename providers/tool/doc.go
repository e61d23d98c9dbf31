// Package tool adapts a typed Go function to the JSON-in, JSON-out calling
// convention used by agent hosts.
//
// [NewTool] binds a name and description to a function; [Tool.Call] decodes
// the (possibly malformed) JSON arguments with core/parse, runs the function
// and encodes its result. When the context carries an observability span,
// start and end events are recorded on it.
package tool

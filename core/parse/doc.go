// Package parse decodes tool input that arrives as loosely formed JSON.
//
// Model-generated arguments are often almost-JSON: single quotes, trailing
// commas, unquoted keys, a markdown fence around the object, or values
// wrapped as {"type": ..., "value": ...}. [ParseStringAs] accepts all of
// these by trying a strict decode first, then a repaired one, then an
// unwrapped one.
package parse

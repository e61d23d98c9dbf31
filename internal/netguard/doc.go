// Package netguard decides whether a hostname or IP literal points at
// private, loopback, link-local or cloud-metadata infrastructure.
//
// A [Guard] is built once per fetch with an explicit [Options] value; it holds
// no global state and reads no environment variables itself. Callers run
// [Guard.Check] on the initial target, on every redirect hop and on every
// alternate URL before it is requested. [Guard.DialControl] repeats the IP
// check at connect time so a public name that resolves to a private address
// is refused as well.
package netguard

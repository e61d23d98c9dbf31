// Package capture reads HTTP response bodies incrementally and keeps a
// bounded, decoded prefix for display.
//
// [Stream] drives two sinks from a single chunk loop: every raw byte goes to a
// file in a fresh per-call temporary directory, while the decoded text feeds a
// head buffer capped by line count and byte count. Once a cap is reached the
// head freezes; the file write and the character/line/byte totals continue to
// the end of the body. The head is finally cut at the caller's character
// limit; the uncut head stays available as [Text.Sample]. When any limit
// truncated the output, a notice is appended and the directory is kept for
// the caller; otherwise it is removed before Stream returns.
//
// [Probe] reads only a small fixed byte budget and never touches the disk.
package capture

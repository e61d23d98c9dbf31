package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DefaultMaxLines caps the number of lines kept in the head buffer.
	DefaultMaxLines = 2000
	// DefaultMaxBytes caps the UTF-8 size of the head buffer.
	DefaultMaxBytes = 50 * 1024
	// DefaultProbeBytes is the raw byte budget of a probe capture.
	DefaultProbeBytes = 8 * 1024

	chunkSize = 32 * 1024
	fileName  = "response.txt"
	dirPrefix = "webfetch-"
)

// Options controls a capture.
type Options struct {
	// MaxLines and MaxBytes cap the head buffer. Zero selects the defaults.
	MaxLines int
	MaxBytes int
	// MaxChars is applied to the frozen head after the stream ends. Zero
	// disables the character cut.
	MaxChars int
	// Charset is the charset parameter of the response Content-Type. Unknown
	// or empty labels decode as UTF-8.
	Charset string
	// TempDir is the parent of the per-call directory; empty means os.TempDir.
	TempDir string
	// ProbeBytes is the budget used by Probe. Zero selects DefaultProbeBytes.
	ProbeBytes int
}

func (o Options) withDefaults() Options {
	if o.MaxLines <= 0 {
		o.MaxLines = DefaultMaxLines
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.ProbeBytes <= 0 {
		o.ProbeBytes = DefaultProbeBytes
	}
	return o
}

// Text is the captured, bounded body of one fetch attempt.
type Text struct {
	// Text is the displayable body, including the truncation notice when
	// Truncated is set.
	Text string

	Truncated           bool
	TruncatedByLines    bool
	TruncatedByBytes    bool
	TruncatedByMaxChars bool

	// TotalCharacters, TotalLines and TotalBytes describe the whole decoded body.
	TotalCharacters int
	TotalLines      int
	TotalBytes      int64
	// ShownCharacters counts the body characters in Text, notice excluded.
	ShownCharacters int

	// Sample is the decoded head before the MaxChars cut: the line and byte
	// capped head for Stream, the whole decoded budget for Probe. Content
	// inspection reads Sample; display reads Text.
	Sample string

	// FullOutputPath points at the raw body on disk. It is set only when
	// Truncated is true; the caller owns its parent directory from then on.
	FullOutputPath string

	// Probe, BytesRead and ByteLimit are set by Probe.
	Probe     bool
	BytesRead int64
	ByteLimit int64
}

// Body returns Text without the truncation notice.
func (t Text) Body() string {
	if i := strings.LastIndex(t.Text, noticePrefix); t.Truncated && i >= 0 {
		return t.Text[:i]
	}
	return t.Text
}

// Discard removes the spill-over directory of a truncated capture. It is a
// no-op for captures without a file.
func (t Text) Discard() {
	if t.FullOutputPath == "" {
		return
	}
	if err := os.RemoveAll(filepath.Dir(t.FullOutputPath)); err != nil {
		slog.Warn("failed to remove capture directory", "path", t.FullOutputPath, "error", err.Error())
	}
}

func newDecoder(label string) transform.Transformer {
	if label = strings.TrimSpace(label); label != "" {
		if enc, name := charset.Lookup(label); enc != nil && name != "utf-8" {
			return enc.NewDecoder()
		}
	}
	return unicode.UTF8.NewDecoder()
}

// Stream reads r to the end, writing the raw bytes to a temporary file and
// returning the bounded head. The file is closed before Stream returns on
// every path; its directory survives only when the result is truncated.
func Stream(ctx context.Context, r io.Reader, opts Options) (result Text, err error) {
	opts = opts.withDefaults()

	dir, err := os.MkdirTemp(opts.TempDir, dirPrefix)
	if err != nil {
		return Text{}, fmt.Errorf("failed to create capture directory: %w", err)
	}
	path := filepath.Join(dir, fileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		_ = os.RemoveAll(dir)
		return Text{}, fmt.Errorf("failed to create capture file: %w", err)
	}

	keep := false
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close capture file: %w", closeErr)
			result = Text{}
			keep = false
		}
		if !keep {
			_ = os.RemoveAll(dir)
		}
	}()

	decoded := transform.NewReader(io.TeeReader(r, file), newDecoder(opts.Charset))
	head := newHeadBuffer(opts.MaxLines, opts.MaxBytes)
	var totals counter

	buf := make([]byte, chunkSize)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Text{}, ctxErr
		}
		n, readErr := decoded.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			totals.add(chunk)
			head.write(chunk)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return Text{}, readErr
		}
	}

	result = finish(head, totals, opts.MaxChars)
	if result.Truncated {
		keep = true
		result.FullOutputPath = path
		result.Text += notice(result)
	}
	return result, nil
}

// Probe reads at most opts.ProbeBytes raw bytes from r and decodes them. The
// caller is responsible for closing the underlying body.
func Probe(ctx context.Context, r io.Reader, opts Options) (Text, error) {
	opts = opts.withDefaults()
	if err := ctx.Err(); err != nil {
		return Text{}, err
	}

	raw, err := io.ReadAll(io.LimitReader(r, int64(opts.ProbeBytes)))
	if err != nil {
		return Text{}, err
	}
	decoded, _, err := transform.Bytes(newDecoder(opts.Charset), raw)
	if err != nil {
		decoded = []byte(strings.ToValidUTF8(string(raw), "�"))
	}

	var totals counter
	totals.add(string(decoded))

	sample := string(decoded)
	text := sample
	if opts.MaxChars > 0 && utf8.RuneCountInString(text) > opts.MaxChars {
		text = cutRunes(text, opts.MaxChars)
	}

	return Text{
		Text:            text,
		TotalCharacters: totals.chars,
		TotalLines:      totals.lines(),
		TotalBytes:      totals.bytes,
		ShownCharacters: utf8.RuneCountInString(text),
		Sample:          sample,
		Probe:           true,
		BytesRead:       int64(len(raw)),
		ByteLimit:       int64(opts.ProbeBytes),
	}, nil
}

type counter struct {
	chars    int
	bytes    int64
	newlines int
	lastByte byte
}

func (c *counter) add(s string) {
	if s == "" {
		return
	}
	c.chars += utf8.RuneCountInString(s)
	c.bytes += int64(len(s))
	c.newlines += strings.Count(s, "\n")
	c.lastByte = s[len(s)-1]
}

func (c *counter) lines() int {
	if c.bytes == 0 {
		return 0
	}
	if c.lastByte == '\n' {
		return c.newlines
	}
	return c.newlines + 1
}

func countLines(s string) int {
	var c counter
	c.add(s)
	return c.lines()
}

// headBuffer accumulates decoded text until a line or byte cap freezes it.
type headBuffer struct {
	maxLines int
	maxBytes int

	b        strings.Builder
	newlines int
	offset   int64
	frozen   bool

	// lineCapEnd is the stream offset just past the newline that ended the
	// last allowed line, or -1 when the line cap was not reached.
	lineCapEnd int64
	byBytes    bool
}

func newHeadBuffer(maxLines, maxBytes int) *headBuffer {
	return &headBuffer{maxLines: maxLines, maxBytes: maxBytes, lineCapEnd: -1}
}

func (h *headBuffer) write(chunk string) {
	if h.frozen {
		return
	}

	lineEnd := len(chunk)
	lineCap := false
	newlines := h.newlines
	for i := 0; i < len(chunk); i++ {
		if chunk[i] != '\n' {
			continue
		}
		if newlines+1 >= h.maxLines {
			lineEnd = i
			lineCap = true
			break
		}
		newlines++
	}

	byteRoom := h.maxBytes - h.b.Len()
	if byteRoom < lineEnd {
		cut := byteRoom
		for cut > 0 && !utf8.RuneStart(chunk[cut]) {
			cut--
		}
		h.b.WriteString(chunk[:cut])
		h.newlines += strings.Count(chunk[:cut], "\n")
		h.offset += int64(cut)
		h.frozen = true
		h.byBytes = true
		return
	}

	h.b.WriteString(chunk[:lineEnd])
	h.newlines = newlines
	h.offset += int64(lineEnd)
	if lineCap {
		h.frozen = true
		h.lineCapEnd = h.offset + 1
	}
}

func finish(head *headBuffer, totals counter, maxChars int) Text {
	text := head.b.String()
	if head.byBytes {
		if i := strings.LastIndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
	}

	byLines := head.lineCapEnd >= 0 && totals.bytes > head.lineCapEnd
	if head.lineCapEnd >= 0 && !byLines {
		// The cap newline was the last byte of the body.
		text += "\n"
	}
	sample := text
	byChars := false
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		text = cutRunes(text, maxChars)
		byChars = true
	}

	return Text{
		Text:                text,
		Truncated:           byLines || head.byBytes || byChars,
		TruncatedByLines:    byLines,
		TruncatedByBytes:    head.byBytes,
		TruncatedByMaxChars: byChars,
		TotalCharacters:     totals.chars,
		TotalLines:          totals.lines(),
		TotalBytes:          totals.bytes,
		ShownCharacters:     utf8.RuneCountInString(text),
		Sample:              sample,
	}
}

func cutRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

const noticePrefix = "\n\n[Output truncated: "

func notice(t Text) string {
	var b strings.Builder
	b.WriteString(noticePrefix)
	fmt.Fprintf(&b, "showing %s of %s lines (%s of %s)",
		humanize.Comma(int64(countLines(t.Text))),
		humanize.Comma(int64(t.TotalLines)),
		humanize.IBytes(uint64(len(t.Text))),
		humanize.IBytes(uint64(t.TotalBytes)),
	)
	if t.TruncatedByMaxChars {
		fmt.Fprintf(&b, "; character limit reached, showing %s of %s characters",
			humanize.Comma(int64(t.ShownCharacters)),
			humanize.Comma(int64(t.TotalCharacters)),
		)
	}
	fmt.Fprintf(&b, ". Full content saved to: %s]", t.FullOutputPath)
	return b.String()
}

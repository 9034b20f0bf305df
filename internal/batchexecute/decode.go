package batchexecute

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	nlmerrors "github.com/shouta-dev/notebooklm-go/errors"
)

// Chunk is one decoded frame from a chunked response body. The tag dispatch
// happens exactly once, here at the parse boundary; downstream code switches
// over the closed set of variants instead of re-checking tag strings.
type Chunk interface {
	isChunk()
}

// ResultChunk carries the decoded payload of a "wrb.fr" frame.
type ResultChunk struct {
	// ID is the correlation id the result belongs to
	ID string

	// Payload is the decoded result value. Payload strings that themselves
	// parse as JSON are decoded one further level (double-encoding is
	// standard in this protocol); otherwise the literal string is kept.
	Payload any
}

// ErrorChunk carries a server-reported failure from an "er" frame.
type ErrorChunk struct {
	// ID is the correlation id the error belongs to
	ID string

	// Message is the error payload when the server sent a string
	Message string

	// Code is the error payload when the server sent a number
	Code int
}

// OtherChunk is a housekeeping frame (sequence markers and similar) that
// carries no result. Kept so callers can see arrival order if they care.
type OtherChunk struct {
	// Tag is the frame's type tag, empty when the frame had none
	Tag string
}

func (ResultChunk) isChunk() {}
func (ErrorChunk) isChunk()  {}
func (OtherChunk) isChunk()  {}

// Frame type tags used by the protocol.
const (
	tagResult = "wrb.fr"
	tagError  = "er"
)

// StripPrefix removes the anti-XSSI marker (`)]}'` plus newline) from the
// start of a raw response. Both `\n` and `\r\n` line endings are accepted,
// as is one extra blank line after the marker. A body without the marker is
// passed through unchanged: degraded paths of the protocol omit it, so its
// absence is not an error. The operation is idempotent.
func StripPrefix(raw string) string {
	rest, ok := strings.CutPrefix(raw, ")]}'")
	if !ok {
		return raw
	}
	for _, nl := range []string{"\r\n", "\n"} {
		if after, found := strings.CutPrefix(rest, nl); found {
			rest = after
			break
		}
	}
	// Tolerate one extra blank line between the marker and the chunk stream.
	for _, nl := range []string{"\r\n", "\n"} {
		if after, found := strings.CutPrefix(rest, nl); found {
			rest = after
			break
		}
	}
	return rest
}

// ParseChunks splits a stripped response body into its frames. Each frame is
// a line holding a decimal character count, followed by exactly that many
// characters of JSON, followed by a newline.
//
// Parsing is resilient by design: empty or whitespace-only bodies yield no
// chunks, and malformed frames are skipped rather than aborting the stream,
// so valid frames later in the same response remain usable.
func ParseChunks(body string) []Chunk {
	// Lengths count characters, not bytes; index over runes so multi-byte
	// payloads slice correctly.
	runes := []rune(body)
	var chunks []Chunk

	i := 0
	for i < len(runes) {
		lineEnd := i
		for lineEnd < len(runes) && runes[lineEnd] != '\n' {
			lineEnd++
		}
		line := strings.TrimSpace(string(runes[i:lineEnd]))
		next := lineEnd + 1
		if line == "" {
			i = next
			continue
		}

		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 || next+n > len(runes) {
			// Not a frame header; skip the line and keep scanning.
			i = next
			continue
		}

		var decoded any
		if err := json.Unmarshal([]byte(string(runes[next:next+n])), &decoded); err != nil {
			// Frame body was not valid JSON; rescan it line by line so a
			// following well-formed frame is still found.
			i = next
			continue
		}

		chunks = append(chunks, classifyFrame(decoded)...)
		i = next + n
		if i < len(runes) && runes[i] == '\r' {
			i++
		}
		if i < len(runes) && runes[i] == '\n' {
			i++
		}
	}
	return chunks
}

// classifyFrame turns one decoded frame value into chunk variants. A frame is
// usually a single chunk array, but servers also batch several chunk arrays
// into one frame ([[tag, ...], [tag, ...]]); both shapes are accepted.
func classifyFrame(v any) []Chunk {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return []Chunk{OtherChunk{}}
	}
	if _, ok := arr[0].(string); ok {
		return []Chunk{classify(arr)}
	}

	var out []Chunk
	for _, item := range arr {
		if inner, ok := item.([]any); ok && len(inner) > 0 {
			out = append(out, classify(inner))
		}
	}
	if len(out) == 0 {
		return []Chunk{OtherChunk{}}
	}
	return out
}

// classify turns one chunk array into its variant.
func classify(arr []any) Chunk {
	tag, ok := arr[0].(string)
	if !ok {
		return OtherChunk{}
	}

	switch tag {
	case tagResult:
		if len(arr) < 3 {
			return OtherChunk{Tag: tag}
		}
		id, _ := arr[1].(string)
		return ResultChunk{ID: id, Payload: decodePayload(arr[2])}
	case tagError:
		if len(arr) < 2 {
			return OtherChunk{Tag: tag}
		}
		id, _ := arr[1].(string)
		chunk := ErrorChunk{ID: id}
		if len(arr) > 2 {
			switch payload := arr[2].(type) {
			case string:
				chunk.Message = payload
			case float64:
				chunk.Code = int(payload)
			}
		}
		return chunk
	default:
		return OtherChunk{Tag: tag}
	}
}

// decodePayload unwraps one level of double-encoding: a payload string that
// parses as JSON is replaced by its decoded value, anything else is kept
// verbatim.
func decodePayload(payload any) any {
	s, ok := payload.(string)
	if !ok {
		return payload
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}

// ExtractResult finds the result for one correlation id in a parsed chunk
// sequence. A server-reported error chunk for the id takes precedence over
// any result chunk and surfaces as *errors.RPCError. When no chunk matches
// the id at all the call failed at the protocol level (codec or version
// mismatch), reported distinctly via errors.ErrNoResult.
func ExtractResult(chunks []Chunk, rpcID string) (any, error) {
	for _, chunk := range chunks {
		if ec, ok := chunk.(ErrorChunk); ok && ec.ID == rpcID {
			return nil, &nlmerrors.RPCError{RPCID: rpcID, Message: ec.Message, Code: ec.Code}
		}
	}
	for _, chunk := range chunks {
		if rc, ok := chunk.(ResultChunk); ok && rc.ID == rpcID {
			return rc.Payload, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", nlmerrors.ErrNoResult, rpcID)
}

// Decode runs the full response pipeline: strip the anti-XSSI prefix, parse
// the chunk stream, and extract the result for the given correlation id.
// This is the single entry point higher components use.
func Decode(raw, rpcID string) (any, error) {
	return ExtractResult(ParseChunks(StripPrefix(raw)), rpcID)
}

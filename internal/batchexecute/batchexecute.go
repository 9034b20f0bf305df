// Package batchexecute implements the wire codec for the backend's
// batchexecute RPC transport: envelope encoding on the request side and
// chunked-response parsing on the response side.
//
// All functions are pure over their inputs; the package performs no I/O.
package batchexecute

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// RequestTag is the transport subtype carried in every envelope. Constant
// for this protocol version.
const RequestTag = "generic"

// Envelope is one encoded RPC invocation: the correlation id routing the
// call to a remote method, plus its compactly JSON-encoded argument array.
// Immutable once built.
type Envelope struct {
	// RPCID is the opaque correlation id of the remote method
	RPCID string

	// Params is the compact JSON encoding of the argument array
	Params string

	// Tag is the transport subtype, always RequestTag
	Tag string
}

// Encode builds an envelope for one RPC invocation. params may be any
// JSON-serializable value; positional argument arrays with nil placeholders
// for omitted optional fields are the norm for this protocol.
//
// The encoding is compact (no extraneous whitespace): the backend is strict
// about exact byte layout for integrity checks downstream.
func Encode(rpcID string, params any) (Envelope, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode rpc %s params: %w", rpcID, err)
	}
	return Envelope{
		RPCID:  rpcID,
		Params: string(encoded),
		Tag:    RequestTag,
	}, nil
}

// BuildBody serializes envelopes into a transport-ready form-encoded request
// body: an `f.req` field holding the URL-encoded envelope array, an `at`
// field carrying the CSRF token when one is supplied, and an `f.sid` field
// carrying the session id when one is supplied. The trailing `&` after the
// last field is part of the wire contract and must be preserved.
func BuildBody(envelopes []Envelope, csrfToken, sessionID string) (string, error) {
	inner := make([][]any, 0, len(envelopes))
	for _, env := range envelopes {
		inner = append(inner, []any{env.RPCID, env.Params, nil, env.Tag})
	}
	// The transport wraps the envelope list in one extra array level.
	outer := [][][]any{inner}

	encoded, err := json.Marshal(outer)
	if err != nil {
		return "", fmt.Errorf("encode request body: %w", err)
	}

	var body strings.Builder
	body.WriteString("f.req=")
	body.WriteString(url.QueryEscape(string(encoded)))
	if csrfToken != "" {
		body.WriteString("&at=")
		body.WriteString(url.QueryEscape(csrfToken))
	}
	if sessionID != "" {
		body.WriteString("&f.sid=")
		body.WriteString(url.QueryEscape(sessionID))
	}
	body.WriteString("&")
	return body.String(), nil
}

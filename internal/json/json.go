// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package json centralizes the JSON codec used across mcpcore so the rest
// of the module can swap implementations in one place. It delegates to
// segmentio/encoding/json, a drop-in, allocation-lighter replacement for
// encoding/json that the protocol's wire-format-heavy message loop
// benefits from.
package json

import (
	"bytes"
	"fmt"
	"io"

	segj "github.com/segmentio/encoding/json"
)

// RawMessage is a drop-in replacement for encoding/json.RawMessage.
type RawMessage = segj.RawMessage

// Decoder is a drop-in replacement for encoding/json.Decoder.
type Decoder = segj.Decoder

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder { return segj.NewDecoder(r) }

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return segj.Marshal(v)
}

// MarshalIndent is like Marshal but applies indentation.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return segj.MarshalIndent(v, prefix, indent)
}

// Unmarshal parses JSON-encoded data into v. Object keys match struct field
// names and tags case-sensitively: a key that differs only in case is
// treated as an unknown field and ignored.
func Unmarshal(data []byte, v any) error {
	rest, err := segj.Parse(data, v, segj.DontMatchCaseInsensitiveStructFields)
	if err == nil && len(bytes.TrimSpace(rest)) != 0 {
		return fmt.Errorf("json: invalid character %q after top-level value", rest[0])
	}
	return err
}

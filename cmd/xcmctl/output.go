// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/xcmctl/lib/codec"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatCBOR = "cbor"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML, formatCBOR:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json, yaml or cbor)", format)
	}
}

// encoder writes values in one of the structured formats. A stream
// encoder writes one compact JSON line, one YAML document, or one CBOR
// data item per value.
type encoder struct {
	output   io.Writer
	format   string
	json     *json.Encoder
	yaml     *yaml.Encoder
	cbor     *codec.Encoder
	diagnose bool
}

func newEncoder(output io.Writer, format string, stream bool) *encoder {
	e := &encoder{output: output, format: format}
	switch format {
	case formatJSON:
		e.json = json.NewEncoder(output)
		if !stream {
			e.json.SetIndent("", "  ")
		}
	case formatYAML:
		e.yaml = yaml.NewEncoder(output)
		e.yaml.SetIndent(2)
	case formatCBOR:
		e.diagnose = isTerminal(output)
		e.cbor = codec.NewEncoder(output)
	}
	return e
}

func (e *encoder) Encode(value any) error {
	switch e.format {
	case formatJSON:
		return e.json.Encode(value)
	case formatYAML:
		return e.yaml.Encode(value)
	case formatCBOR:
		if !e.diagnose {
			return e.cbor.Encode(value)
		}
		data, err := codec.Marshal(value)
		if err != nil {
			return err
		}
		notation, err := codec.Diagnose(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(e.output, notation)
		return err
	default:
		return fmt.Errorf("no encoder for format %q", e.format)
	}
}

// Close flushes a YAML encoder.
func (e *encoder) Close() error {
	if e.yaml != nil {
		return e.yaml.Close()
	}
	return nil
}

// writeStructured encodes a single value.
func writeStructured(output io.Writer, format string, value any) error {
	e := newEncoder(output, format, false)
	if err := e.Encode(value); err != nil {
		return err
	}
	return e.Close()
}

func isTerminal(output io.Writer) bool {
	file, ok := output.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

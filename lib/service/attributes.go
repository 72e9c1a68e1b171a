// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/xcmctl/lib/attr"
	"github.com/bureau-foundation/xcmctl/lib/binhash"
	"github.com/bureau-foundation/xcmctl/lib/clock"
	"github.com/bureau-foundation/xcmctl/lib/secret"
)

// Generic attribute names every host socket exposes.
const (
	TypeAttribute        = "xcm.type"
	TransportAttribute   = "xcm.transport"
	LocalAddrAttribute   = "xcm.local_addr"
	UptimeAttribute      = "xcm.uptime"
	FingerprintAttribute = "tls.cert_fingerprint"
)

// SocketIdentity describes the socket behind the generic attributes.
type SocketIdentity struct {
	// Type is "server" or "connection".
	Type      string
	Transport string
	LocalAddr string

	// Started is when the socket was created. xcm.uptime is measured
	// from it with Clock, which defaults to the real clock.
	Started time.Time
	Clock   clock.Clock
}

// RegisterIdentity registers xcm.type, xcm.transport, xcm.local_addr
// and xcm.uptime (seconds, as a double), replacing whatever the
// registry already held under those names.
func RegisterIdentity(registry *attr.Registry, identity SocketIdentity) {
	uptimeClock := identity.Clock
	if uptimeClock == nil {
		uptimeClock = clock.Real()
	}
	started := identity.Started
	if started.IsZero() {
		started = uptimeClock.Now()
	}

	registry.Set(TypeAttribute, attr.String(identity.Type))
	registry.Set(TransportAttribute, attr.String(identity.Transport))
	registry.Set(LocalAddrAttribute, attr.String(identity.LocalAddr))
	registry.Replace(UptimeAttribute, func() (attr.Value, error) {
		return attr.Double(clock.Since(uptimeClock, started).Seconds()), nil
	})
}

// ParseStaticAttributes parses a JSON object of attributes, with
// comments and trailing commas allowed. Booleans, strings and numbers
// map to bool, string and int64 (or double when the number is not an
// integer). Binary values are written as {"hex": "cafe"}.
func ParseStaticAttributes(data []byte) (map[string]attr.Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing static attributes: %w", err)
	}

	values := make(map[string]attr.Value, len(raw))
	var errs []error
	for name, native := range raw {
		value, err := staticValue(native)
		if err != nil {
			errs = append(errs, fmt.Errorf("attribute %q: %w", name, err))
			continue
		}
		values[name] = value
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return values, nil
}

func staticValue(native any) (attr.Value, error) {
	switch native := native.(type) {
	case bool:
		return attr.Bool(native), nil
	case string:
		return attr.String(native), nil
	case json.Number:
		if integer, err := native.Int64(); err == nil {
			return attr.Int64(integer), nil
		}
		double, err := native.Float64()
		if err != nil {
			return attr.Value{}, err
		}
		return attr.Double(double), nil
	case map[string]any:
		encoded, ok := native["hex"].(string)
		if !ok || len(native) != 1 {
			return attr.Value{}, errors.New(`objects must have exactly one "hex" field`)
		}
		decoded, err := hex.DecodeString(encoded)
		if err != nil {
			return attr.Value{}, err
		}
		return attr.Binary(decoded), nil
	default:
		return attr.Value{}, fmt.Errorf("unsupported JSON value %T", native)
	}
}

// LoadStaticAttributes reads ParseStaticAttributes input from path.
func LoadStaticAttributes(path string) (map[string]attr.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading static attributes: %w", err)
	}
	values, err := ParseStaticAttributes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// RegisterTLSKey exposes key as attr.TLSKey, the way a TLS socket
// does. The control channel never discloses it; in-process readers
// get a copy. After key is closed the attribute reads as not found.
// Any value already registered under attr.TLSKey is replaced.
func RegisterTLSKey(registry *attr.Registry, key *secret.Buffer) {
	registry.Replace(attr.TLSKey, func() (attr.Value, error) {
		if key.Len() == 0 {
			return attr.Value{}, attr.ErrNotFound
		}
		return attr.Binary(key.Bytes()), nil
	})
}

// CertificateFingerprint returns the digest of the DER bytes of the
// first CERTIFICATE block in a PEM file.
func CertificateFingerprint(path string) (binhash.Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return binhash.Digest{}, fmt.Errorf("reading certificate: %w", err)
	}
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return binhash.Digest{}, fmt.Errorf("%s: no CERTIFICATE block", path)
		}
		if block.Type == "CERTIFICATE" {
			return binhash.HashBytes(binhash.DomainCertificate, block.Bytes), nil
		}
	}
}

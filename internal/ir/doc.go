// Package ir provides the foundational record, event, and error types for
// the profile core.
//
// This package contains type definitions and their encodings only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Addresses are 32 bytes and render as lowercase hex
//   - Record layouts are fixed size and versionless
//   - Event payloads are serialized as RFC 8785 canonical JSON
//   - No floats anywhere in canonical payloads
package ir

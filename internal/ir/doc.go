// Package ir provides the data model shared by every specstore package:
// resources, the operation catalogue, executor results and failures.
//
// This package contains type definitions and codecs only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Resources are immutable values; mutation produces a new version
//   - Wire records are canonical JSON (RFC 8785 key order, NFC strings)
//   - Operations are inert data; executing them is the executor package's job
//   - Operation kinds are a closed enum on the Go side, tags only on the wire
package ir

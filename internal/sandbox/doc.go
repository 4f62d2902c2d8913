// Package sandbox implements the read-only file-access core: path
// containment against a fixed repository root, deny-policy enforcement,
// bounded directory tree listing, size-capped line-ranged file reads, and
// count-capped regex content search.
//
// All operations are stateless and side-effect-free. The Service value is
// immutable after construction, so concurrent calls need no coordination.
// The core never performs network I/O, session management, or
// authentication; those belong to the transport layer.
package sandbox

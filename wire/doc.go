// Package wire defines the byte-level forms of the frost boundary
// objects and converts between them and the in-memory types.
//
// Every struct carries json, msgpack, cbor and yaml tags so any
// transport.Serializer codec can carry it. Decoding rejects
// non-canonical scalars and points, so a package that decodes cleanly
// re-encodes to the same bytes.
//
// Signing nonces have no wire form. KeyPackage does, for local storage
// only; it holds the signing share and must never be sent to a peer.
package wire

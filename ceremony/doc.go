// Package ceremony runs a full FROST key generation or signing round
// trip with every party in its own goroutine, exchanging packages over a
// [transport.Transport].
//
// Each party is driven through a [session.Participant], so the phase
// ordering and single-use rules of the session package apply unchanged.
// Payloads are encoded with the wire package and a transport.Serializer
// before they reach the transport; secret key packages never do.
//
// A barrier that does not fill before the context ends is reported as a
// [frost.IncompletePackageSetError] for the phase that stalled, wrapped
// together with the transport error that caused it.
//
//	f, _ := frost.New(&secp256k1.Secp256k1{}, 2, 3)
//	c, _ := ceremony.New(f, ceremony.Config{Logger: logger})
//	parties, _ := ceremony.NewParties(f, ids)
//	tr, _ := memory.New(c.SessionID(), ceremony.PartyIDs(parties), "json")
//	pub, err := c.RunDKG(ctx, tr, parties)
//	sig, err := c.Sign(ctx, tr, parties[:2], []byte("message"))
package ceremony

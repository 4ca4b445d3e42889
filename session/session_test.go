package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/bjj"
	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/secp256k1"
)

func newParticipants(t *testing.T, f *frost.FROST) []*Participant {
	t.Helper()
	participants := make([]*Participant, f.Total())
	for i := range participants {
		id, err := frost.IdentifierFromUint16(f.Group(), uint16(i+1))
		require.NoError(t, err)
		p, err := NewParticipant(f, id)
		require.NoError(t, err)
		participants[i] = p
	}
	return participants
}

func runDKG(t *testing.T, participants []*Participant) []*DKGResult {
	t.Helper()
	n := len(participants)

	r1 := make([]*frost.Round1Package, n)
	for i, p := range participants {
		pkg, err := p.Round1(rand.Reader)
		require.NoError(t, err, "participant %d round1", i+1)
		r1[i] = pkg
	}

	r2 := make([][]*frost.Round2Package, n)
	for i, p := range participants {
		out, err := p.Round2(others(r1, i))
		require.NoError(t, err, "participant %d round2", i+1)
		r2[i] = out
	}

	results := make([]*DKGResult, n)
	for i, p := range participants {
		var received []*frost.Round2Package
		for _, out := range r2 {
			for _, pkg := range out {
				if pkg.To.Equal(p.Identifier()) {
					received = append(received, pkg)
				}
			}
		}
		res, err := p.Round3(received)
		require.NoError(t, err, "participant %d round3", i+1)
		results[i] = res
	}
	return results
}

func others(pkgs []*frost.Round1Package, skip int) []*frost.Round1Package {
	var out []*frost.Round1Package
	for i, p := range pkgs {
		if i != skip {
			out = append(out, p)
		}
	}
	return out
}

func TestDKGAndSign(t *testing.T) {
	g := &bjj.BJJ{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)

	participants := newParticipants(t, f)
	results := runDKG(t, participants)

	for i, p := range participants {
		assert.Equal(t, Ready, p.Phase())
		assert.True(t, results[i].PublicKeyPackage.Equal(results[0].PublicKeyPackage))
	}

	message := []byte("hello FROST")
	signers := participants[:2]
	sessions := make([]*SigningSession, len(signers))
	commitments := make([]*frost.SigningCommitment, len(signers))
	for i, p := range signers {
		sess, err := p.NewSigningSession(rand.Reader, message)
		require.NoError(t, err)
		sessions[i] = sess
		commitments[i] = sess.Commitment()
	}

	pkg, err := f.NewSigningPackage(message, commitments)
	require.NoError(t, err)

	shares := make([]*frost.SignatureShare, len(sessions))
	for i, sess := range sessions {
		share, err := sess.Sign(pkg)
		require.NoError(t, err)
		shares[i] = share
	}

	pub := results[0].PublicKeyPackage
	sig, err := Aggregate(f, pkg, shares, pub)
	require.NoError(t, err)
	assert.NoError(t, Verify(f, message, sig, pub.GroupKey))
	assert.ErrorIs(t, Verify(f, []byte("wrong message"), sig, pub.GroupKey), frost.ErrSignatureVerificationFailed)
}

func TestPhaseOrdering(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)
	p := newParticipants(t, f)[0]

	_, err = p.Round2(nil)
	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, AwaitingRound2, phaseErr.Want)
	assert.Equal(t, AwaitingRound1, phaseErr.Got)

	_, err = p.Round3(nil)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	_, err = p.NewSigningSession(rand.Reader, []byte("early"))
	assert.ErrorIs(t, err, ErrOutOfOrder)

	_, err = p.Round1(rand.Reader)
	require.NoError(t, err)
	assert.Equal(t, AwaitingRound2, p.Phase())

	// Round1 cannot be repeated.
	_, err = p.Round1(rand.Reader)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, AwaitingRound2, p.Phase())
}

func TestFailedRoundIsTerminal(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)
	participants := newParticipants(t, f)

	r1 := make([]*frost.Round1Package, 3)
	for i, p := range participants {
		r1[i], err = p.Round1(rand.Reader)
		require.NoError(t, err)
	}

	// Only one peer package: incomplete.
	_, err = participants[0].Round2(r1[1:2])
	assert.ErrorIs(t, err, frost.ErrIncompletePackageSet)
	assert.Equal(t, Failed, participants[0].Phase())

	_, err = participants[0].Round2(others(r1, 0))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestNonceReusePrevention(t *testing.T) {
	g := &bjj.BJJ{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)
	participants := newParticipants(t, f)
	runDKG(t, participants)

	message := []byte("test message")
	s1, err := participants[0].NewSigningSession(rand.Reader, message)
	require.NoError(t, err)
	s2, err := participants[1].NewSigningSession(rand.Reader, message)
	require.NoError(t, err)

	pkg, err := f.NewSigningPackage(message, []*frost.SigningCommitment{s1.Commitment(), s2.Commitment()})
	require.NoError(t, err)

	_, err = s1.Sign(pkg)
	require.NoError(t, err)
	assert.True(t, s1.IsConsumed())

	_, err = s1.Sign(pkg)
	assert.ErrorIs(t, err, ErrSessionConsumed)
}

func TestMessageMismatchConsumesSession(t *testing.T) {
	g := &bjj.BJJ{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)
	participants := newParticipants(t, f)
	runDKG(t, participants)

	s1, err := participants[0].NewSigningSession(rand.Reader, []byte("intended"))
	require.NoError(t, err)
	s2, err := participants[1].NewSigningSession(rand.Reader, []byte("intended"))
	require.NoError(t, err)

	other, err := f.NewSigningPackage([]byte("substituted"), []*frost.SigningCommitment{s1.Commitment(), s2.Commitment()})
	require.NoError(t, err)

	_, err = s1.Sign(other)
	assert.ErrorIs(t, err, ErrMessageMismatch)
	assert.True(t, s1.IsConsumed())
}

func TestDiscardSession(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)
	participants := newParticipants(t, f)
	runDKG(t, participants)

	message := []byte("abandoned")
	s1, err := participants[0].NewSigningSession(rand.Reader, message)
	require.NoError(t, err)
	s2, err := participants[1].NewSigningSession(rand.Reader, message)
	require.NoError(t, err)
	pkg, err := f.NewSigningPackage(message, []*frost.SigningCommitment{s1.Commitment(), s2.Commitment()})
	require.NoError(t, err)

	s1.Discard()
	assert.True(t, s1.IsConsumed())
	_, err = s1.Sign(pkg)
	assert.ErrorIs(t, err, ErrSessionConsumed)

	// Discard after a successful Sign changes nothing.
	share, err := s2.Sign(pkg)
	require.NoError(t, err)
	require.NotNil(t, share)
	s2.Discard()
	assert.True(t, s2.IsConsumed())
}

func TestDeriveIdentifiers(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)

	seeds := [][]byte{{1}, {2}, {3}}
	ids, err := DeriveIdentifiers(f, seeds)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	_, err = DeriveIdentifiers(f, [][]byte{{1}, {2}, {1}})
	assert.ErrorIs(t, err, frost.ErrDuplicateIdentifier)
}

func TestNewParticipantValidation(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)

	_, err = NewParticipant(f, frost.Identifier{})
	assert.ErrorIs(t, err, frost.ErrInvalidIdentifier)

	id, err := frost.IdentifierFromUint16(g, 1)
	require.NoError(t, err)
	_, err = NewParticipant(nil, id)
	assert.ErrorIs(t, err, frost.ErrInvalidConfiguration)
}

func TestQuickSign(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := frost.New(g, 3, 5)
	require.NoError(t, err)
	results := runDKG(t, newParticipants(t, f))

	keys := make([]*frost.KeyPackage, len(results))
	for i, r := range results {
		keys[i] = r.KeyPackage
	}
	pub := results[0].PublicKeyPackage
	message := []byte("quick")

	sig, err := QuickSign(f, rand.Reader, keys[1:4], pub, message)
	require.NoError(t, err)
	assert.NoError(t, Verify(f, message, sig, pub.GroupKey))

	_, err = QuickSign(f, rand.Reader, keys[:2], pub, message)
	assert.ErrorIs(t, err, frost.ErrInsufficientSigners)

	_, err = QuickSign(f, rand.Reader, nil, pub, message)
	assert.Error(t, err)
}

func TestRestore(t *testing.T) {
	g := &bjj.BJJ{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)
	results := runDKG(t, newParticipants(t, f))

	// A fresh participant restored from saved key material can sign.
	restored := newParticipants(t, f)
	for i, p := range restored {
		require.NoError(t, p.Restore(results[i].KeyPackage, results[i].PublicKeyPackage))
		assert.Equal(t, Ready, p.Phase())
	}

	err = restored[0].Restore(results[0].KeyPackage, results[0].PublicKeyPackage)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	fresh := newParticipants(t, f)
	err = fresh[0].Restore(results[1].KeyPackage, results[1].PublicKeyPackage)
	assert.ErrorIs(t, err, frost.ErrMalformed)

	message := []byte("after restore")
	s1, err := restored[0].NewSigningSession(rand.Reader, message)
	require.NoError(t, err)
	s3, err := restored[2].NewSigningSession(rand.Reader, message)
	require.NoError(t, err)

	pkg, err := f.NewSigningPackage(message, []*frost.SigningCommitment{s1.Commitment(), s3.Commitment()})
	require.NoError(t, err)
	z1, err := s1.Sign(pkg)
	require.NoError(t, err)
	z3, err := s3.Sign(pkg)
	require.NoError(t, err)

	_, err = Aggregate(f, pkg, []*frost.SignatureShare{z1, z3}, restored[0].PublicKeyPackage())
	assert.NoError(t, err)
}

func TestAggregateValidation(t *testing.T) {
	g := &bjj.BJJ{}
	f, err := frost.New(g, 2, 3)
	require.NoError(t, err)

	_, err = Aggregate(f, &frost.SigningPackage{}, nil, &frost.PublicKeyPackage{})
	assert.Error(t, err)
}

func TestSigningWithDifferentSubsets(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := frost.New(g, 3, 5)
	require.NoError(t, err)
	participants := newParticipants(t, f)
	results := runDKG(t, participants)
	pub := results[0].PublicKeyPackage

	subsets := [][]int{
		{0, 1, 2},
		{0, 2, 4},
		{1, 3, 4},
		{0, 1, 2, 3, 4},
	}
	for _, subset := range subsets {
		t.Run(fmt.Sprint(subset), func(t *testing.T) {
			message := []byte(fmt.Sprintf("subset %v", subset))
			sessions := make([]*SigningSession, len(subset))
			commitments := make([]*frost.SigningCommitment, len(subset))
			for i, idx := range subset {
				sess, err := participants[idx].NewSigningSession(rand.Reader, message)
				require.NoError(t, err)
				sessions[i] = sess
				commitments[i] = sess.Commitment()
			}
			pkg, err := f.NewSigningPackage(message, commitments)
			require.NoError(t, err)

			shares := make([]*frost.SignatureShare, len(sessions))
			for i, sess := range sessions {
				shares[i], err = sess.Sign(pkg)
				require.NoError(t, err)
			}
			sig, err := Aggregate(f, pkg, shares, pub)
			require.NoError(t, err)
			assert.True(t, f.Verify(message, sig, pub.GroupKey))
		})
	}
}

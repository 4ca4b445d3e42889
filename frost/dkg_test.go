package frost

import (
	"crypto/rand"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/frostkit/group"
	"github.com/f3rmion/frostkit/secp256k1"
)

func setupRound1(t *testing.T, threshold, total int) (*FROST, []Identifier, []*Round1SecretPackage, []*Round1Package) {
	t.Helper()
	g := &secp256k1.Secp256k1{}
	f, err := New(g, threshold, total)
	require.NoError(t, err)

	ids := testIDs(t, g, total)
	secrets := make([]*Round1SecretPackage, total)
	pkgs := make([]*Round1Package, total)
	for i, id := range ids {
		secrets[i], pkgs[i], err = f.Round1(id, rand.Reader)
		require.NoError(t, err)
	}
	return f, ids, secrets, pkgs
}

func TestRound1(t *testing.T) {
	f, ids, secrets, pkgs := setupRound1(t, 3, 4)

	for i, pkg := range pkgs {
		assert.True(t, pkg.Identifier.Equal(ids[i]))
		assert.Len(t, pkg.Commitment, 3)
		assert.True(t, f.verifyKnowledge(pkg))
		assert.True(t, secrets[i].Identifier().Equal(ids[i]))
		assert.False(t, secrets[i].Consumed())
	}

	_, _, err := f.Round1(Identifier{}, rand.Reader)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestRound2Validation(t *testing.T) {
	t.Run("IncompleteSet", func(t *testing.T) {
		f, _, secrets, pkgs := setupRound1(t, 2, 3)
		_, _, err := f.Round2(secrets[0], pkgs[1:2])

		var incomplete *IncompletePackageSetError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, PhaseDKGRound2, incomplete.Phase)
		assert.Equal(t, 2, incomplete.Expected)
		assert.Equal(t, 1, incomplete.Got)
	})

	t.Run("OwnPackageIncluded", func(t *testing.T) {
		f, _, secrets, pkgs := setupRound1(t, 2, 3)
		_, _, err := f.Round2(secrets[0], []*Round1Package{pkgs[0], pkgs[1]})
		assert.ErrorIs(t, err, ErrDuplicateIdentifier)
	})

	t.Run("DuplicatePeer", func(t *testing.T) {
		f, _, secrets, pkgs := setupRound1(t, 2, 3)
		_, _, err := f.Round2(secrets[0], []*Round1Package{pkgs[1], pkgs[1]})
		assert.ErrorIs(t, err, ErrDuplicateIdentifier)
	})

	t.Run("CommitmentLength", func(t *testing.T) {
		f, ids, secrets, pkgs := setupRound1(t, 2, 3)
		short := *pkgs[2]
		short.Commitment = short.Commitment[:1]

		_, _, err := f.Round2(secrets[0], []*Round1Package{pkgs[1], &short})
		var commitErr *InvalidCommitmentError
		require.True(t, errors.As(err, &commitErr))
		assert.True(t, commitErr.From.Equal(ids[2]))
		assert.Equal(t, 2, commitErr.Expected)
		assert.Equal(t, 1, commitErr.Got)
	})
}

// flipPointBit flips one bit of p's encoding at byte index. If the
// result does not decode, the next bit of the same byte is tried.
func flipPointBit(t *testing.T, g group.Group, p group.Point, index int) group.Point {
	t.Helper()
	for bit := 0; bit < 8; bit++ {
		enc := p.Bytes()
		enc[index] ^= 1 << bit
		if q, err := g.NewPoint().SetBytes(enc); err == nil {
			return q
		}
	}
	require.FailNow(t, "no bit flip at this byte decodes")
	return nil
}

func TestProofOfKnowledgeBitFlip(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, g group.Group, proof *ProofOfKnowledge)
	}{
		{"ZLowBit", func(t *testing.T, g group.Group, proof *ProofOfKnowledge) {
			z := proof.Z.Bytes()
			z[len(z)-1] ^= 0x01
			proof.Z, _ = g.NewScalar().SetBytes(z)
		}},
		{"ZHighByte", func(t *testing.T, g group.Group, proof *ProofOfKnowledge) {
			z := proof.Z.Bytes()
			z[1] ^= 0x80
			proof.Z, _ = g.NewScalar().SetBytes(z)
		}},
		{"RParity", func(t *testing.T, g group.Group, proof *ProofOfKnowledge) {
			// 0x02 <-> 0x03 negates R.
			proof.R = flipPointBit(t, g, proof.R, 0)
		}},
		{"RCoordinate", func(t *testing.T, g group.Group, proof *ProofOfKnowledge) {
			proof.R = flipPointBit(t, g, proof.R, 16)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ids, secrets, pkgs := setupRound1(t, 2, 3)
			tt.mutate(t, f.Group(), &pkgs[2].Proof)

			for i := 0; i < 2; i++ {
				_, _, err := f.Round2(secrets[i], othersRound1(pkgs, i))
				require.ErrorIs(t, err, ErrInvalidProofOfKnowledge, "recipient %d", i+1)

				var pokErr *InvalidProofOfKnowledgeError
				require.True(t, errors.As(err, &pokErr))
				assert.True(t, pokErr.From.Equal(ids[2]))
			}
		})
	}
}

func TestIdentityCoefficientRejected(t *testing.T) {
	f, ids, secrets, pkgs := setupRound1(t, 2, 3)

	bad := *pkgs[2]
	bad.Commitment = []group.Point{pkgs[2].Commitment[0], f.Group().NewPoint()}

	_, _, err := f.Round2(secrets[0], []*Round1Package{pkgs[1], &bad})
	assert.ErrorIs(t, err, ErrIdentityElement)
	assert.Contains(t, err.Error(), ids[2].String())
}

func TestRound1SecretOwnsCommitment(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := New(g, 2, 3)
	require.NoError(t, err)
	ids := testIDs(t, g, 3)
	st := runRounds12(t, f, ids)

	// Tampering with the broadcast copy after Round1 must not change the
	// party's own contribution to the group key.
	want := make([]group.Point, len(st.round1[0].Commitment))
	for i, c := range st.round1[0].Commitment {
		want[i] = g.NewPoint().Set(c)
	}
	st.round1[0].Commitment[0].Add(st.round1[0].Commitment[0], g.Generator())

	kp, pub, err := f.Round3(st.secrets2[0], othersRound1(st.round1, 0), addressedTo(st.round2, ids[0]))
	require.NoError(t, err)

	groupKey := g.NewPoint().Set(want[0])
	for _, pkg := range othersRound1(st.round1, 0) {
		groupKey = g.NewPoint().Add(groupKey, pkg.Commitment[0])
	}
	assert.True(t, pub.GroupKey.Equal(groupKey))
	assert.True(t, kp.GroupKey.Equal(groupKey))
}

func TestProofBoundToIdentifier(t *testing.T) {
	f, _, secrets, pkgs := setupRound1(t, 2, 3)

	// Replaying party 2's package under another identifier fails.
	replay := *pkgs[1]
	other, err := IdentifierFromUint16(f.Group(), 9)
	require.NoError(t, err)
	replay.Identifier = other

	_, _, err = f.Round2(secrets[0], []*Round1Package{&replay, pkgs[2]})
	assert.ErrorIs(t, err, ErrInvalidProofOfKnowledge)
}

func TestSecretPackageSingleUse(t *testing.T) {
	t.Run("AfterSuccess", func(t *testing.T) {
		f, _, secrets, pkgs := setupRound1(t, 2, 3)
		_, secret2, err := f.Round2(secrets[0], othersRound1(pkgs, 0))
		require.NoError(t, err)
		require.NotNil(t, secret2)
		assert.True(t, secrets[0].Consumed())

		_, _, err = f.Round2(secrets[0], othersRound1(pkgs, 0))
		assert.ErrorIs(t, err, ErrSecretConsumed)
	})

	t.Run("AfterFailure", func(t *testing.T) {
		f, _, secrets, pkgs := setupRound1(t, 2, 3)
		_, _, err := f.Round2(secrets[0], pkgs[1:2])
		require.ErrorIs(t, err, ErrIncompletePackageSet)

		_, _, err = f.Round2(secrets[0], othersRound1(pkgs, 0))
		assert.ErrorIs(t, err, ErrSecretConsumed)
	})

	t.Run("Round2Secret", func(t *testing.T) {
		g := &secp256k1.Secp256k1{}
		f, err := New(g, 2, 3)
		require.NoError(t, err)
		ids := testIDs(t, g, 3)
		st := runRounds12(t, f, ids)

		_, _, err = f.Round3(st.secrets2[0], othersRound1(st.round1, 0), addressedTo(st.round2, ids[0]))
		require.NoError(t, err)
		assert.True(t, st.secrets2[0].Consumed())

		_, _, err = f.Round3(st.secrets2[0], othersRound1(st.round1, 0), addressedTo(st.round2, ids[0]))
		assert.ErrorIs(t, err, ErrSecretConsumed)
	})

	t.Run("Concurrent", func(t *testing.T) {
		f, _, secrets, pkgs := setupRound1(t, 2, 3)
		peers := othersRound1(pkgs, 0)

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, 4)
		)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, _, errs[i] = f.Round2(secrets[0], peers)
			}()
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, ErrSecretConsumed)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("Nil", func(t *testing.T) {
		f, _, _, pkgs := setupRound1(t, 2, 3)
		_, _, err := f.Round2(nil, pkgs[1:])
		assert.ErrorIs(t, err, ErrSecretConsumed)
	})
}

func TestRound3Validation(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := New(g, 2, 3)
	require.NoError(t, err)
	ids := testIDs(t, g, 3)

	t.Run("IncompleteShares", func(t *testing.T) {
		st := runRounds12(t, f, ids)
		incoming := addressedTo(st.round2, ids[0])[:1]

		_, _, err := f.Round3(st.secrets2[0], othersRound1(st.round1, 0), incoming)
		var incomplete *IncompletePackageSetError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, PhaseDKGRound3, incomplete.Phase)
		assert.Equal(t, 1, incomplete.Got)
	})

	t.Run("IncompleteRound1", func(t *testing.T) {
		st := runRounds12(t, f, ids)
		_, _, err := f.Round3(st.secrets2[0], st.round1[1:2], addressedTo(st.round2, ids[0]))
		assert.ErrorIs(t, err, ErrIncompletePackageSet)
	})

	t.Run("BadShare", func(t *testing.T) {
		st := runRounds12(t, f, ids)
		incoming := addressedTo(st.round2, ids[0])
		tampered := *incoming[1]
		tampered.Share = g.NewScalar().Add(tampered.Share, f.scalarFromInt(1))
		incoming[1] = &tampered

		_, _, err := f.Round3(st.secrets2[0], othersRound1(st.round1, 0), incoming)
		var shareErr *InvalidShareError
		require.True(t, errors.As(err, &shareErr))
		assert.True(t, shareErr.From.Equal(tampered.From))
	})

	t.Run("MisaddressedShare", func(t *testing.T) {
		st := runRounds12(t, f, ids)
		incoming := addressedTo(st.round2, ids[0])
		tampered := *incoming[0]
		tampered.To = ids[2]
		incoming[0] = &tampered

		_, _, err := f.Round3(st.secrets2[0], othersRound1(st.round1, 0), incoming)
		assert.ErrorIs(t, err, ErrInvalidShare)
	})

	t.Run("MissingSender", func(t *testing.T) {
		st := runRounds12(t, f, ids)
		incoming := addressedTo(st.round2, ids[0])
		stranger, err := IdentifierFromUint16(g, 7)
		require.NoError(t, err)
		tampered := *incoming[0]
		missing := tampered.From
		tampered.From = stranger
		incoming[0] = &tampered

		_, _, err = f.Round3(st.secrets2[0], othersRound1(st.round1, 0), incoming)
		var missingErr *MissingPackageError
		require.True(t, errors.As(err, &missingErr))
		assert.True(t, missingErr.Identifier.Equal(missing))
	})
}

func TestPublicKeyPackageLookup(t *testing.T) {
	g := &secp256k1.Secp256k1{}
	f, err := New(g, 2, 3)
	require.NoError(t, err)
	ids := testIDs(t, g, 3)
	keys, pubs := runDKG(t, f, ids)

	assert.Equal(t, ids, pubs[0].Identifiers())
	assert.True(t, pubs[0].Equal(pubs[1]))

	stranger, err := IdentifierFromUint16(g, 42)
	require.NoError(t, err)
	_, ok := pubs[0].VerifyingShare(stranger)
	assert.False(t, ok)

	for _, kp := range keys {
		assert.Equal(t, 2, kp.MinSigners)
	}
}

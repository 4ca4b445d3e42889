package ceremony

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/session"
	"github.com/f3rmion/frostkit/transport"
	"github.com/f3rmion/frostkit/wire"
)

// Sign runs one signing session among signers. Every signer commits
// afresh, exchanges commitments and shares with the others, and
// aggregates independently; the returned signature has been verified
// against the group key by each of them.
//
// Signers must be Ready, either from RunDKG or Participant.Restore.
func (c *Coordinator) Sign(ctx context.Context, tr transport.Transport, signers []Party, message []byte) (*frost.Signature, error) {
	if len(signers) < c.frost.Threshold() {
		return nil, &frost.QuorumError{
			Phase:    frost.PhaseSignCommit,
			Required: c.frost.Threshold(),
			Got:      len(signers),
		}
	}
	dir, err := newDirectory(signers)
	if err != nil {
		return nil, err
	}

	attempt := c.attempts.Add(1)
	log := c.logger.With(
		zap.String("session", c.sessionID),
		zap.String("ceremony", "sign"),
		zap.Uint64("attempt", attempt),
	)
	log.Info("signing started",
		zap.Int("signers", len(signers)),
		zap.Int("message_len", len(message)))
	start := time.Now()

	sigs := make([]*frost.Signature, len(signers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range signers {
		r := c.newRun(tr, dir, p.ID, attempt, log)
		g.Go(func() error {
			sig, err := r.sign(gctx, p.Participant, message)
			if err != nil {
				return r.fail(err)
			}
			sigs[i] = sig
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		for _, sig := range sigs[1:] {
			if !sig.Equal(sigs[0]) {
				err = ErrInconsistentResult
				break
			}
		}
	}
	c.metrics.finished("sign", err)
	if err != nil {
		log.Error("signing failed", zap.Error(err))
		return nil, err
	}

	log.Info("signing complete",
		zap.String("signature", hex.EncodeToString(sigs[0].Bytes())),
		zap.Duration("elapsed", time.Since(start)))
	return sigs[0], nil
}

func (r *run) sign(ctx context.Context, p *session.Participant, message []byte) (*frost.Signature, error) {
	g := r.c.frost.Group()
	others := r.dir.others(r.me)

	r.enter(frost.PhaseSignCommit)
	sess, err := p.NewSigningSession(r.c.rand, message)
	if err != nil {
		return nil, err
	}
	defer sess.Discard()
	pub := p.PublicKeyPackage()

	own := sess.Commitment()
	for _, to := range others {
		if err := r.send(ctx, to, wire.FromSigningCommitment(own)); err != nil {
			return nil, err
		}
	}
	raw, err := r.collect(ctx, len(others))
	if err != nil {
		return nil, err
	}
	commitments := []*frost.SigningCommitment{own}
	for _, from := range sortedSenders(raw) {
		var w wire.SigningCommitment
		if err := r.decode(from, raw[from], &w); err != nil {
			return nil, err
		}
		decoded, err := w.Decode(g)
		if err != nil {
			return nil, err
		}
		if err := r.dir.expect(from, decoded.Identifier); err != nil {
			return nil, err
		}
		commitments = append(commitments, decoded)
	}

	r.enter(frost.PhaseSign)
	pkg, err := r.c.frost.NewSigningPackage(message, commitments)
	if err != nil {
		return nil, err
	}
	share, err := sess.Sign(pkg)
	if err != nil {
		return nil, err
	}
	for _, to := range others {
		if err := r.send(ctx, to, wire.FromSignatureShare(share)); err != nil {
			return nil, err
		}
	}
	raw, err = r.collect(ctx, len(others))
	if err != nil {
		return nil, err
	}
	shares := []*frost.SignatureShare{share}
	for _, from := range sortedSenders(raw) {
		var w wire.SignatureShare
		if err := r.decode(from, raw[from], &w); err != nil {
			return nil, err
		}
		decoded, err := w.Decode(g)
		if err != nil {
			return nil, err
		}
		if err := r.dir.expect(from, decoded.Identifier); err != nil {
			return nil, err
		}
		shares = append(shares, decoded)
	}

	r.enter(frost.PhaseAggregate)
	sig, err := session.Aggregate(r.c.frost, pkg, shares, pub)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return sig, nil
}

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

// RunDKG runs the three DKG rounds for every party concurrently and
// returns the public key package they agree on. On success every
// participant is Ready and holds its own key package.
//
// The first failing party cancels the rest.
func (c *Coordinator) RunDKG(ctx context.Context, tr transport.Transport, parties []Party) (*frost.PublicKeyPackage, error) {
	if len(parties) != c.frost.Total() {
		return nil, fmt.Errorf("%w: %d parties for n=%d", ErrInvalidParties, len(parties), c.frost.Total())
	}
	dir, err := newDirectory(parties)
	if err != nil {
		return nil, err
	}

	attempt := c.attempts.Add(1)
	log := c.logger.With(
		zap.String("session", c.sessionID),
		zap.String("ceremony", "dkg"),
		zap.Uint64("attempt", attempt),
	)
	log.Info("dkg started",
		zap.Int("threshold", c.frost.Threshold()),
		zap.Int("participants", len(parties)),
		zap.String("curve", c.frost.Group().Name()))
	start := time.Now()

	results := make([]*session.DKGResult, len(parties))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range parties {
		r := c.newRun(tr, dir, p.ID, attempt, log)
		g.Go(func() error {
			res, err := r.dkg(gctx, p.Participant)
			if err != nil {
				return r.fail(err)
			}
			results[i] = res
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = agreeOnPublicKey(results)
	}
	c.metrics.finished("dkg", err)
	if err != nil {
		log.Error("dkg failed", zap.Error(err))
		return nil, err
	}

	pub := results[0].PublicKeyPackage
	log.Info("dkg complete",
		zap.String("group_key", hex.EncodeToString(pub.GroupKey.Bytes())),
		zap.Duration("elapsed", time.Since(start)))
	return pub, nil
}

func agreeOnPublicKey(results []*session.DKGResult) error {
	for _, r := range results[1:] {
		if !r.PublicKeyPackage.Equal(results[0].PublicKeyPackage) {
			return ErrInconsistentResult
		}
	}
	return nil
}

func (r *run) dkg(ctx context.Context, p *session.Participant) (*session.DKGResult, error) {
	g := r.c.frost.Group()
	peers := len(r.dir.byParty) - 1

	r.enter(frost.PhaseDKGRound1)
	pkg, err := p.Round1(r.c.rand)
	if err != nil {
		return nil, err
	}
	if err := r.broadcast(ctx, wire.FromRound1Package(pkg)); err != nil {
		return nil, err
	}
	raw, err := r.collect(ctx, peers)
	if err != nil {
		return nil, err
	}
	round1 := make([]*frost.Round1Package, 0, len(raw))
	for _, from := range sortedSenders(raw) {
		var w wire.Round1Package
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
		round1 = append(round1, decoded)
	}
	r.log.Info("round1 packages received", zap.Int("count", len(round1)))

	r.enter(frost.PhaseDKGRound2)
	out, err := p.Round2(round1)
	if err != nil {
		return nil, err
	}
	for _, pkg := range out {
		to, ok := r.dir.party(pkg.To)
		if !ok {
			return nil, &frost.MissingPackageError{Phase: frost.PhaseDKGRound2, Identifier: pkg.To}
		}
		if err := r.send(ctx, to, wire.FromRound2Package(pkg)); err != nil {
			return nil, err
		}
	}
	r.log.Info("round2 packages sent", zap.Int("count", len(out)))

	raw, err = r.collect(ctx, peers)
	if err != nil {
		return nil, err
	}
	round2 := make([]*frost.Round2Package, 0, len(raw))
	for _, from := range sortedSenders(raw) {
		var w wire.Round2Package
		if err := r.decode(from, raw[from], &w); err != nil {
			return nil, err
		}
		decoded, err := w.Decode(g)
		if err != nil {
			return nil, err
		}
		if err := r.dir.expect(from, decoded.From); err != nil {
			return nil, err
		}
		round2 = append(round2, decoded)
	}
	r.log.Info("round2 packages received", zap.Int("count", len(round2)))

	r.enter(frost.PhaseDKGRound3)
	return p.Round3(round2)
}

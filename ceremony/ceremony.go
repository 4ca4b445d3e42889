package ceremony

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/f3rmion/frostkit/frost"
	"github.com/f3rmion/frostkit/session"
	"github.com/f3rmion/frostkit/transport"
)

// Config configures a Coordinator. The zero value is usable.
type Config struct {
	// SessionID labels log lines. Transports created for this
	// coordinator should use the same value. A random UUID is used
	// when empty.
	SessionID string

	// Codec selects the payload serializer. Defaults to json.
	Codec string

	// Logger receives per-phase progress. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics is optional.
	Metrics *Metrics

	// Rand is shared by all parties and must be safe for concurrent
	// use. Defaults to crypto/rand.Reader.
	Rand io.Reader
}

// Coordinator drives ceremonies for one FROST configuration.
type Coordinator struct {
	frost      *frost.FROST
	sessionID  string
	serializer *transport.Serializer
	logger     *zap.Logger
	metrics    *Metrics
	rand       io.Reader

	// attempts numbers ceremonies so their transport phases never collide.
	attempts atomic.Uint64
}

// Party binds a transport address to a session participant.
type Party struct {
	ID          transport.PartyID
	Participant *session.Participant
}

// New creates a Coordinator.
func New(f *frost.FROST, cfg Config) (*Coordinator, error) {
	if f == nil {
		return nil, fmt.Errorf("ceremony: %w", frost.ErrInvalidConfiguration)
	}
	codec := cfg.Codec
	if codec == "" {
		codec = transport.CodecJSON
	}
	serializer, err := transport.NewSerializer(codec)
	if err != nil {
		return nil, fmt.Errorf("ceremony: %w", err)
	}

	c := &Coordinator{
		frost:      f,
		sessionID:  cfg.SessionID,
		serializer: serializer,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		rand:       cfg.Rand,
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.rand == nil {
		c.rand = rand.Reader
	}
	return c, nil
}

// SessionID returns the session label.
func (c *Coordinator) SessionID() string { return c.sessionID }

// NewParties creates one participant per identifier, addressed 1..n in
// the given order.
func NewParties(f *frost.FROST, ids []frost.Identifier) ([]Party, error) {
	if len(ids) > int(^transport.PartyID(0)) {
		return nil, fmt.Errorf("%w: %d parties", ErrInvalidParties, len(ids))
	}
	parties := make([]Party, len(ids))
	for i, id := range ids {
		p, err := session.NewParticipant(f, id)
		if err != nil {
			return nil, fmt.Errorf("ceremony: %w", err)
		}
		parties[i] = Party{ID: transport.PartyID(i + 1), Participant: p}
	}
	return parties, nil
}

// PartyIDs returns the transport addresses of parties.
func PartyIDs(parties []Party) []transport.PartyID {
	ids := make([]transport.PartyID, len(parties))
	for i, p := range parties {
		ids[i] = p.ID
	}
	return ids
}

// directory maps between transport addresses and protocol identifiers.
type directory struct {
	byParty map[transport.PartyID]frost.Identifier
	byKey   map[string]transport.PartyID
}

func newDirectory(parties []Party) (*directory, error) {
	if len(parties) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidParties)
	}
	d := &directory{
		byParty: make(map[transport.PartyID]frost.Identifier, len(parties)),
		byKey:   make(map[string]transport.PartyID, len(parties)),
	}
	for _, p := range parties {
		if p.Participant == nil || p.ID == 0 {
			return nil, fmt.Errorf("%w: party %s", ErrInvalidParties, p.ID)
		}
		id := p.Participant.Identifier()
		key := string(id.Bytes())
		if _, dup := d.byParty[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate address %s", ErrInvalidParties, p.ID)
		}
		if _, dup := d.byKey[key]; dup {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParties, frost.ErrDuplicateIdentifier)
		}
		d.byParty[p.ID] = id
		d.byKey[key] = p.ID
	}
	return d, nil
}

func (d *directory) party(id frost.Identifier) (transport.PartyID, bool) {
	p, ok := d.byKey[string(id.Bytes())]
	return p, ok
}

// expect checks that a payload from sender carries sender's identifier.
func (d *directory) expect(sender transport.PartyID, id frost.Identifier) error {
	want, ok := d.byParty[sender]
	if !ok || !want.Equal(id) {
		return fmt.Errorf("%w: party %s sent %s", ErrSenderMismatch, sender, id)
	}
	return nil
}

func (d *directory) others(me transport.PartyID) []transport.PartyID {
	out := make([]transport.PartyID, 0, len(d.byParty)-1)
	for p := range d.byParty {
		if p != me {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func phaseName(p frost.Phase, attempt uint64) transport.Phase {
	return transport.Phase(fmt.Sprintf("%s/%d", p, attempt))
}

func sortedSenders(raw map[transport.PartyID][]byte) []transport.PartyID {
	out := make([]transport.PartyID, 0, len(raw))
	for p := range raw {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// run tracks the phase a single party is in, for error labels.
type run struct {
	c       *Coordinator
	tr      transport.Transport
	dir     *directory
	me      transport.PartyID
	attempt uint64
	phase   frost.Phase
	log     *zap.Logger
}

func (c *Coordinator) newRun(tr transport.Transport, dir *directory, me transport.PartyID, attempt uint64, log *zap.Logger) *run {
	return &run{
		c:       c,
		tr:      tr,
		dir:     dir,
		me:      me,
		attempt: attempt,
		log:     log.With(zap.Stringer("party", me)),
	}
}

func (r *run) enter(p frost.Phase) {
	r.phase = p
}

func (r *run) encode(v any) ([]byte, error) {
	data, err := r.c.serializer.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.phase, err)
	}
	return data, nil
}

func (r *run) broadcast(ctx context.Context, v any) error {
	data, err := r.encode(v)
	if err != nil {
		return err
	}
	if err := r.tr.Broadcast(ctx, phaseName(r.phase, r.attempt), r.me, data); err != nil {
		return err
	}
	r.c.metrics.sent(r.phase, len(data))
	return nil
}

func (r *run) send(ctx context.Context, to transport.PartyID, v any) error {
	data, err := r.encode(v)
	if err != nil {
		return err
	}
	if err := r.tr.Send(ctx, phaseName(r.phase, r.attempt), r.me, to, data); err != nil {
		return err
	}
	r.c.metrics.sent(r.phase, len(data))
	return nil
}

// collect waits for expected payloads for the current phase. A barrier
// that does not fill is reported as an incomplete package set.
func (r *run) collect(ctx context.Context, expected int) (map[transport.PartyID][]byte, error) {
	start := time.Now()
	raw, err := r.tr.CollectAll(ctx, phaseName(r.phase, r.attempt), r.me, expected)
	r.c.metrics.waited(r.phase, time.Since(start))
	if err != nil {
		got := 0
		var collectErr *transport.CollectError
		if errors.As(err, &collectErr) {
			got = collectErr.Received
		}
		return nil, fmt.Errorf("%w: %w", &frost.IncompletePackageSetError{
			Phase:    r.phase,
			Expected: expected,
			Got:      got,
		}, err)
	}
	if len(raw) != expected {
		return nil, &frost.IncompletePackageSetError{Phase: r.phase, Expected: expected, Got: len(raw)}
	}
	r.c.metrics.received(r.phase, len(raw))
	r.log.Debug("barrier filled",
		zap.String("phase", string(r.phase)),
		zap.Int("count", len(raw)),
		zap.Duration("waited", time.Since(start)))
	return raw, nil
}

// decode unmarshals a payload from sender into w.
func (r *run) decode(sender transport.PartyID, data []byte, w any) error {
	if err := r.c.serializer.Unmarshal(data, w); err != nil {
		return fmt.Errorf("%s payload from party %s: %w", r.phase, sender, err)
	}
	return nil
}

// fail records the failure and labels err with the party.
func (r *run) fail(err error) error {
	r.c.metrics.failed(r.phase)
	r.log.Warn("party failed", zap.String("phase", string(r.phase)), zap.Error(err))
	return fmt.Errorf("ceremony: party %s: %w", r.me, err)
}

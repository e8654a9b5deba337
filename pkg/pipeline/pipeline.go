package pipeline

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/ports"
	"github.com/wirebit/bitmesh/pkg/pow"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// pubkeyResendGuard is the minimum interval between two GET_PUBKEY
// responses for the same local identity (spec.md §9 open question #1:
// "implementers should add it to match the written spec").
const pubkeyResendGuard = 28 * 24 * time.Hour

// defaultObjectTTL is how far in the future a freshly minted object's
// expiresTime is set, absent a more specific policy.
const defaultObjectTTL = 48 * time.Hour

// Config configures a Pipeline. Every field is a port the engine
// consumes but does not implement (spec.md §6).
type Config struct {
	Addresses ports.AddressRepository
	Messages  ports.MessageRepository
	Inventory ports.Inventory
	PoW       *pow.Engine

	// Publish hands a freshly signed, PoW-stamped object to the gossip
	// layer (pkg/netpeer) for storage and flooding. Required.
	Publish func(obj *wireobj.ObjectMessage)

	Listener ports.Listener

	Now           func() time.Time
	LoggerFactory logging.LoggerFactory
}

// Pipeline drives spec.md §4.7's outbound and inbound flows.
type Pipeline struct {
	cfg Config
	now func() time.Time
	log logging.LeveledLogger

	mu              sync.Mutex
	lastPubkeySent  map[string]time.Time          // keyed by ripe/tag hex
	pendingByTarget map[string][]*ports.StoredMessage // keyed by ripe/tag hex
}

// New constructs a Pipeline from config.
func New(config Config) *Pipeline {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("pipeline")
	} else {
		log = logging.NewDefaultLoggerFactory().NewLogger("pipeline")
	}

	return &Pipeline{
		cfg:             config,
		now:             now,
		log:             log,
		lastPubkeySent:  make(map[string]time.Time),
		pendingByTarget: make(map[string][]*ports.StoredMessage),
	}
}

func targetKey(b []byte) string {
	return hex.EncodeToString(b)
}

func recipientKey(a *address.Address) string {
	if a.Version >= 4 {
		tag := address.CalculateTag(a.Version, a.Stream, a.Ripe)
		return targetKey(tag[:])
	}
	return targetKey(a.Ripe[:])
}

func newObjectMessage(now time.Time, objectType uint32, version, stream uint64, payload []byte) *wireobj.ObjectMessage {
	return &wireobj.ObjectMessage{
		ExpiresTime: now.Add(defaultObjectTTL).Unix(),
		ObjectType:  objectType,
		Version:     version,
		Stream:      stream,
		Payload:     payload,
	}
}

// stampAndPublish runs the proof-of-work search for obj (whose Payload
// is already final) and hands the completed object to cfg.Publish.
func (p *Pipeline) stampAndPublish(ctx context.Context, obj *wireobj.ObjectMessage, nonceTrialsPerByte, extraBytes uint64) error {
	initialHash := obj.InitialHash()
	ttl := obj.ExpiresTime - p.now().Unix()
	if ttl < 0 {
		ttl = 0
	}
	target := pow.Target(len(obj.Encode())-8, ttl, nonceTrialsPerByte, extraBytes)

	nonce, err := p.cfg.PoW.Search(ctx, initialHash, target)
	if err != nil {
		return err
	}
	obj.Nonce = nonce

	if p.cfg.Inventory != nil {
		if _, err := p.cfg.Inventory.StoreObject(obj); err != nil {
			return err
		}
	}

	p.cfg.Publish(obj)
	return nil
}

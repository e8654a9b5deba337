package pipeline

import (
	"bytes"
	"context"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/ports"
	"github.com/wirebit/bitmesh/pkg/pow"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// HandleObject dispatches a freshly accepted inbound object to the
// handler for its type (spec.md §4.7: "GET_PUBKEY/PUBKEY/MSG/BROADCAST
// handling").
func (p *Pipeline) HandleObject(ctx context.Context, obj *wireobj.ObjectMessage) {
	var err error
	switch obj.ObjectType {
	case wireobj.TypeGetpubkey:
		err = p.HandleGetpubkey(ctx, obj)
	case wireobj.TypePubkey:
		err = p.HandlePubkey(ctx, obj)
	case wireobj.TypeMsg:
		err = p.HandleMsg(obj)
	case wireobj.TypeBroadcast:
		err = p.HandleBroadcast(obj)
	default:
		return
	}
	if err != nil {
		p.log.Debugf("handling object type %d: %v", obj.ObjectType, err)
	}
}

// HandleGetpubkey answers a pubkey request for one of our own
// identities, subject to the 28-day resend guard of spec.md §9 open
// question #1.
func (p *Pipeline) HandleGetpubkey(ctx context.Context, obj *wireobj.ObjectMessage) error {
	var target []byte
	if obj.Version >= 4 {
		g, err := wireobj.DecodeGetpubkeyV4(obj.Payload)
		if err != nil {
			return err
		}
		target = g.Tag[:]
	} else {
		g, err := wireobj.DecodeGetpubkeyV3(obj.Payload)
		if err != nil {
			return err
		}
		target = g.Ripe[:]
	}

	identity, ok := p.cfg.Addresses.FindIdentity(target)
	if !ok {
		return nil
	}

	key := targetKey(target)
	now := p.now()

	p.mu.Lock()
	last, sent := p.lastPubkeySent[key]
	if sent && now.Sub(last) < pubkeyResendGuard {
		p.mu.Unlock()
		return nil
	}
	p.lastPubkeySent[key] = now
	p.mu.Unlock()

	inner := &wireobj.PubkeyV3{
		PubkeyV2: wireobj.PubkeyV2{
			SigningPub:    [64]byte(identity.Private.Public().SigningKey.Bytes()),
			EncryptionPub: [64]byte(identity.Private.Public().EncryptionKey.Bytes()),
		},
		NonceTrialsPerByte: pow.DefaultNonceTrialsPerByte,
		ExtraBytes:         pow.DefaultExtraBytes,
	}

	replyObj := newObjectMessage(now, wireobj.TypePubkey, identity.Address.Version, identity.Address.Stream, nil)

	if identity.Address.Version >= 4 {
		tag := address.CalculateTag(identity.Address.Version, identity.Address.Stream, identity.Address.Ripe)
		scalar := address.CalculateDecryptionKey(identity.Address.Version, identity.Address.Stream, identity.Address.Ripe)
		decryptionPriv, err := bmcrypto.NewPrivateKey(scalar[:])
		if err != nil {
			return err
		}
		v4, err := wireobj.SealPubkeyV4(identity.Private.SigningKey, replyObj, tag, inner, decryptionPriv.Public())
		if err != nil {
			return err
		}
		replyObj.Payload = v4.Encode()
	} else {
		if err := inner.Sign(identity.Private.SigningKey, replyObj, nil); err != nil {
			return err
		}
		replyObj.Payload = inner.Encode()
	}

	return p.stampAndPublish(ctx, replyObj, pow.DefaultNonceTrialsPerByte, pow.DefaultExtraBytes)
}

// HandlePubkey verifies and stores an inbound pubkey, then flushes any
// messages that were waiting on it (spec.md §4.7).
func (p *Pipeline) HandlePubkey(ctx context.Context, obj *wireobj.ObjectMessage) error {
	switch {
	case obj.Version >= 4:
		return p.handlePubkeyV4(ctx, obj)
	case obj.Version == 3:
		return p.handlePubkeyV3(ctx, obj)
	default:
		// Version 2 pubkeys carry no signature to verify; accepting
		// them unverified is out of scope (spec.md only implements
		// versions 2-4 addresses for sending, not this legacy form).
		return ErrUnsupportedAddressVersion
	}
}

func (p *Pipeline) handlePubkeyV3(ctx context.Context, obj *wireobj.ObjectMessage) error {
	inner, err := wireobj.DecodePubkeyV3(obj.Payload)
	if err != nil {
		return err
	}
	signingPub, err := bmcrypto.NewPublicKey(inner.SigningPub[:])
	if err != nil {
		return err
	}
	if !inner.Verify(signingPub, obj, nil) {
		return wireobj.ErrSignatureInvalid
	}

	encryptionPub, err := bmcrypto.NewPublicKey(inner.EncryptionPub[:])
	if err != nil {
		return err
	}
	ripe := address.ComputeRipe(&address.PublicKey{SigningKey: signingPub, EncryptionKey: encryptionPub})
	contactAddr := address.New(obj.Version, obj.Stream, ripe)

	return p.storePubkeyAndFlush(ctx, contactAddr, inner)
}

func (p *Pipeline) handlePubkeyV4(ctx context.Context, obj *wireobj.ObjectMessage) error {
	v4, err := wireobj.DecodePubkeyV4(obj.Payload)
	if err != nil {
		return err
	}

	contact, ok := p.cfg.Addresses.FindContact(v4.Tag[:])
	if !ok {
		// We have no pending request for this tag; nothing to do with it.
		return nil
	}

	scalar := address.CalculateDecryptionKey(contact.Address.Version, contact.Address.Stream, contact.Address.Ripe)
	decryptionPriv, err := bmcrypto.NewPrivateKey(scalar[:])
	if err != nil {
		return err
	}

	inner, err := v4.Open(decryptionPriv)
	if err != nil {
		return err
	}

	signingPub, err := bmcrypto.NewPublicKey(inner.SigningPub[:])
	if err != nil {
		return err
	}
	tag := v4.Tag
	if !inner.Verify(signingPub, obj, &tag) {
		return wireobj.ErrSignatureInvalid
	}

	return p.storePubkeyAndFlush(ctx, contact.Address, inner)
}

func (p *Pipeline) storePubkeyAndFlush(ctx context.Context, contactAddr *address.Address, inner *wireobj.PubkeyV3) error {
	contact := ports.Contact{Address: contactAddr, Pubkey: inner}
	if err := p.cfg.Addresses.SaveContact(contact); err != nil {
		return err
	}

	if p.cfg.Listener != nil {
		p.cfg.Listener.OnPubkeyReceived(contact)
	}

	for _, identity := range p.cfg.Addresses.GetIdentities() {
		p.DeliverPubkey(ctx, identity, contactAddr, inner)
	}
	return nil
}

// HandleMsg attempts to decrypt obj against every local identity; it
// silently returns nil for the overwhelming majority of messages on
// the network, which are not addressed to any local identity
// (spec.md §7).
func (p *Pipeline) HandleMsg(obj *wireobj.ObjectMessage) error {
	for _, identity := range p.cfg.Addresses.GetIdentities() {
		plaintext, err := wireobj.OpenMsg(identity.Private.EncryptionKey, obj.Payload)
		if err != nil {
			continue
		}

		signingPub, err := bmcrypto.NewPublicKey(plaintext.SigningPub[:])
		if err != nil {
			return nil
		}
		if !plaintext.Verify(signingPub, obj) {
			return wireobj.ErrSignatureInvalid
		}

		encryptionPub, err := bmcrypto.NewPublicKey(plaintext.EncryptionPub[:])
		if err != nil {
			return nil
		}
		senderRipe := address.ComputeRipe(&address.PublicKey{SigningKey: signingPub, EncryptionKey: encryptionPub})
		from := address.New(plaintext.SenderAddressVersion, plaintext.SenderStream, senderRipe)

		if p.tryConsumeAck(plaintext.Body) {
			return nil
		}

		stored := &ports.StoredMessage{
			IV:           obj.InventoryVector(),
			Type:         "msg",
			From:         from,
			To:           identity.Address,
			Encoding:     plaintext.Encoding,
			Subject:      plaintext.Subject,
			Body:         plaintext.Body,
			AckData:      plaintext.AckData,
			Status:       ports.StatusReceived,
			Labels:       []ports.Label{{Type: ports.LabelInbox}, {Type: ports.LabelUnread}},
			ReceivedTime: p.now(),
		}
		if err := p.cfg.Messages.Save(stored); err != nil {
			return err
		}
		if p.cfg.Listener != nil {
			p.cfg.Listener.OnMessageReceived(stored)
		}
		return nil
	}
	return nil
}

// HandleBroadcast attempts to decrypt obj against every subscription
// for its address version, per spec.md §4.7's broadcast dispatch.
func (p *Pipeline) HandleBroadcast(obj *wireobj.ObjectMessage) error {
	subs := p.subscriptionsForBroadcast(obj.Version)

	if obj.Version >= 5 {
		tag, envelope, err := wireobj.SplitBroadcastV5(obj.Payload)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			wantTag := address.CalculateTag(sub.Address.Version, sub.Address.Stream, sub.Address.Ripe)
			if wantTag != tag {
				continue
			}
			return p.deliverBroadcast(obj, sub, func(key *bmcrypto.PrivateKey) (*wireobj.BroadcastPlaintext, error) {
				return wireobj.OpenBroadcastV5(key, envelope)
			})
		}
		return nil
	}

	for _, sub := range subs {
		err := p.deliverBroadcast(obj, sub, func(key *bmcrypto.PrivateKey) (*wireobj.BroadcastPlaintext, error) {
			return wireobj.OpenBroadcastV4(key, obj.Payload)
		})
		if err == nil {
			return nil
		}
	}
	return nil
}

// subscriptionsForBroadcast maps a broadcast object's wire version to
// the address versions that produce it (outbound.go's SendBroadcast:
// address version 4 seals as broadcast version 5, versions 2-3 seal as
// broadcast version 4), since ports.AddressRepository indexes
// subscriptions by address version, not wire object version.
func (p *Pipeline) subscriptionsForBroadcast(objVersion uint64) []ports.Identity {
	addressVersions := []uint64{2, 3}
	if objVersion >= 5 {
		addressVersions = []uint64{4}
	}

	var subs []ports.Identity
	for _, v := range addressVersions {
		subs = append(subs, p.cfg.Addresses.GetSubscriptions(v)...)
	}
	return subs
}

func (p *Pipeline) deliverBroadcast(obj *wireobj.ObjectMessage, sub ports.Identity, open func(*bmcrypto.PrivateKey) (*wireobj.BroadcastPlaintext, error)) error {
	scalar := address.CalculateDecryptionKey(sub.Address.Version, sub.Address.Stream, sub.Address.Ripe)
	broadcastKey, err := bmcrypto.NewPrivateKey(scalar[:])
	if err != nil {
		return err
	}

	plaintext, err := open(broadcastKey)
	if err != nil {
		return err
	}

	signingPub, err := bmcrypto.NewPublicKey(plaintext.SigningPub[:])
	if err != nil {
		return err
	}
	var tag *[32]byte
	if obj.Version >= 5 {
		t := address.CalculateTag(sub.Address.Version, sub.Address.Stream, sub.Address.Ripe)
		tag = &t
	}
	if !plaintext.Verify(signingPub, obj, tag) {
		return wireobj.ErrSignatureInvalid
	}

	encryptionPub, err := bmcrypto.NewPublicKey(plaintext.EncryptionPub[:])
	if err != nil {
		return err
	}
	senderRipe := address.ComputeRipe(&address.PublicKey{SigningKey: signingPub, EncryptionKey: encryptionPub})
	from := address.New(plaintext.SenderAddressVersion, plaintext.SenderStream, senderRipe)

	stored := &ports.StoredMessage{
		IV:           obj.InventoryVector(),
		Type:         "broadcast",
		From:         from,
		Encoding:     plaintext.Encoding,
		Subject:      plaintext.Subject,
		Body:         plaintext.Body,
		Status:       ports.StatusReceived,
		Labels:       []ports.Label{{Type: ports.LabelInbox}, {Type: ports.LabelBroadcast}, {Type: ports.LabelUnread}},
		ReceivedTime: p.now(),
	}
	if err := p.cfg.Messages.Save(stored); err != nil {
		return err
	}
	if p.cfg.Listener != nil {
		p.cfg.Listener.OnMessageReceived(stored)
	}
	return nil
}

// tryConsumeAck checks body against the ackData of every message we
// have SENT: per spec.md §9 open question #3, an ack is "a random
// payload returned to sender as its own MSG", not a distinct object
// type. A match transitions the original message to ACK_RECEIVED and
// the acking MSG itself is consumed here rather than delivered to the
// listener as a new inbound message.
func (p *Pipeline) tryConsumeAck(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	for _, sent := range p.cfg.Messages.FindMessagesByStatus(ports.StatusSent, nil) {
		if len(sent.AckData) == 0 || !bytes.Equal(sent.AckData, body) {
			continue
		}
		old := sent.Status
		sent.Status = ports.StatusAckReceived
		if err := p.cfg.Messages.Save(sent); err != nil {
			p.log.Warnf("saving acked message: %v", err)
			return true
		}
		p.notifyStatus(sent, old)
		return true
	}
	return false
}

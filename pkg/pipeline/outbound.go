package pipeline

import (
	"context"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/ports"
	"github.com/wirebit/bitmesh/pkg/pow"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// SendMessage implements spec.md §4.7's outbound MSG flow. If the
// recipient's pubkey is not yet known, it issues a getpubkey request
// and returns the message in PUBKEY_REQUESTED; call DeliverPubkey (via
// the inbound dispatch path) to drive it the rest of the way to SENT.
func (p *Pipeline) SendMessage(ctx context.Context, from ports.Identity, to *address.Address, subject, body []byte) (*ports.StoredMessage, error) {
	ackData, err := bmcrypto.RandomBytes(32)
	if err != nil {
		return nil, err
	}

	msg := &ports.StoredMessage{
		Type:     "msg",
		From:     from.Address,
		To:       to,
		Subject:  subject,
		Body:     body,
		AckData:  ackData,
		SentTime: p.now(),
	}

	contact, ok := p.cfg.Addresses.FindContact(recipientBytes(to))
	if !ok || contact.Pubkey == nil {
		msg.Status = ports.StatusPubkeyRequested
		if err := p.cfg.Messages.Save(msg); err != nil {
			return nil, err
		}

		key := recipientKey(to)
		p.mu.Lock()
		p.pendingByTarget[key] = append(p.pendingByTarget[key], msg)
		p.mu.Unlock()

		if err := p.requestPubkey(ctx, from, to); err != nil {
			return msg, err
		}
		return msg, ErrUnknownRecipient
	}

	if err := p.deliverMessage(ctx, from, to, contact.Pubkey, msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// requestPubkey floods a getpubkey object targeting to, rate-limited
// by nothing on the requester's side (the 28-day guard in spec.md §9
// applies to the responder, not the requester).
func (p *Pipeline) requestPubkey(ctx context.Context, from ports.Identity, to *address.Address) error {
	now := p.now()
	var payload []byte
	if to.Version >= 4 {
		tag := address.CalculateTag(to.Version, to.Stream, to.Ripe)
		payload = (&wireobj.GetpubkeyV4{Tag: tag}).Encode()
	} else {
		payload = (&wireobj.GetpubkeyV3{Ripe: to.Ripe}).Encode()
	}

	obj := newObjectMessage(now, wireobj.TypeGetpubkey, to.Version, to.Stream, payload)
	return p.stampAndPublish(ctx, obj, pow.DefaultNonceTrialsPerByte, pow.DefaultExtraBytes)
}

// deliverMessage signs, encrypts, PoW-stamps, and publishes msg to
// recipientPub's owner, advancing msg through DOING_PROOF_OF_WORK to SENT.
func (p *Pipeline) deliverMessage(ctx context.Context, from ports.Identity, to *address.Address, recipientPub *wireobj.PubkeyV3, msg *ports.StoredMessage) error {
	old := msg.Status
	msg.Status = ports.StatusDoingProofOfWork
	p.notifyStatus(msg, old)

	now := p.now()
	plaintext := &wireobj.MsgPlaintext{
		SenderAddressVersion: from.Address.Version,
		SenderStream:         from.Address.Stream,
		SigningPub:           [64]byte(from.Private.Public().SigningKey.Bytes()),
		EncryptionPub:        [64]byte(from.Private.Public().EncryptionKey.Bytes()),
		NonceTrialsPerByte:   recipientPub.NonceTrialsPerByte,
		ExtraBytes:           recipientPub.ExtraBytes,
		DestinationRipe:      to.Ripe,
		Subject:              msg.Subject,
		Body:                 msg.Body,
		AckData:              msg.AckData,
	}

	obj := newObjectMessage(now, wireobj.TypeMsg, from.Address.Version, from.Address.Stream, nil)

	recipientEncPub, err := bmcrypto.NewPublicKey(recipientPub.EncryptionPub[:])
	if err != nil {
		return err
	}

	payload, err := wireobj.SealMsg(from.Private.SigningKey, obj, plaintext, recipientEncPub)
	if err != nil {
		return err
	}
	obj.Payload = payload

	if err := p.stampAndPublish(ctx, obj, recipientPub.NonceTrialsPerByte, recipientPub.ExtraBytes); err != nil {
		return err
	}

	old = msg.Status
	msg.Status = ports.StatusSent
	p.notifyStatus(msg, old)
	return p.cfg.Messages.Save(msg)
}

// DeliverPubkey is called by the inbound dispatch path once a PUBKEY
// matching a pending request arrives: it flushes every PUBKEY_REQUESTED
// message addressed to that contact.
func (p *Pipeline) DeliverPubkey(ctx context.Context, from ports.Identity, to *address.Address, pub *wireobj.PubkeyV3) {
	key := recipientKey(to)

	p.mu.Lock()
	pending := p.pendingByTarget[key]
	delete(p.pendingByTarget, key)
	p.mu.Unlock()

	for _, msg := range pending {
		if err := p.deliverMessage(ctx, from, to, pub, msg); err != nil {
			p.log.Warnf("delivering queued message after pubkey arrival: %v", err)
		}
	}
}

// SendBroadcast implements spec.md §4.7's outbound BROADCAST flow: no
// pubkey lookup is needed since subscribers derive the decryption key
// from the sender's own address.
func (p *Pipeline) SendBroadcast(ctx context.Context, from ports.Identity, subject, body []byte) (*ports.StoredMessage, error) {
	msg := &ports.StoredMessage{
		Type:     "broadcast",
		From:     from.Address,
		Subject:  subject,
		Body:     body,
		Status:   ports.StatusDoingProofOfWork,
		SentTime: p.now(),
	}

	now := p.now()
	scalar := address.CalculateDecryptionKey(from.Address.Version, from.Address.Stream, from.Address.Ripe)
	broadcastKey, err := wireobj.BroadcastKeyFromScalar(scalar)
	if err != nil {
		return msg, err
	}

	plaintext := &wireobj.BroadcastPlaintext{
		SenderAddressVersion: from.Address.Version,
		SenderStream:         from.Address.Stream,
		SigningPub:           [64]byte(from.Private.Public().SigningKey.Bytes()),
		EncryptionPub:        [64]byte(from.Private.Public().EncryptionKey.Bytes()),
		NonceTrialsPerByte:   pow.DefaultNonceTrialsPerByte,
		ExtraBytes:           pow.DefaultExtraBytes,
		Subject:              subject,
		Body:                 body,
	}

	broadcastVersion := uint64(4)
	if from.Address.Version >= 4 {
		broadcastVersion = 5
	}

	obj := newObjectMessage(now, wireobj.TypeBroadcast, broadcastVersion, from.Address.Stream, nil)

	var payload []byte
	if broadcastVersion == 5 {
		tag := address.CalculateTag(from.Address.Version, from.Address.Stream, from.Address.Ripe)
		payload, err = wireobj.SealBroadcastV5(from.Private.SigningKey, obj, tag, plaintext, broadcastKey)
	} else {
		payload, err = wireobj.SealBroadcastV4(from.Private.SigningKey, obj, plaintext, broadcastKey)
	}
	if err != nil {
		return msg, err
	}
	obj.Payload = payload

	if err := p.stampAndPublish(ctx, obj, pow.DefaultNonceTrialsPerByte, pow.DefaultExtraBytes); err != nil {
		return msg, err
	}

	old := msg.Status
	msg.Status = ports.StatusSent
	p.notifyStatus(msg, old)
	return msg, p.cfg.Messages.Save(msg)
}

func (p *Pipeline) notifyStatus(msg *ports.StoredMessage, old ports.MessageStatus) {
	if p.cfg.Listener != nil {
		p.cfg.Listener.OnMessageStatusChanged(msg, old, msg.Status)
	}
}

func recipientBytes(a *address.Address) []byte {
	if a.Version >= 4 {
		tag := address.CalculateTag(a.Version, a.Stream, a.Ripe)
		return tag[:]
	}
	ripe := a.Ripe
	return ripe[:]
}

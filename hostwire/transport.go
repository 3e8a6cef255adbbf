// Package hostwire is the (demonstration) host protocol adapter: it pumps
// txmsg.TxAck/TxRequest messages between a real transport and a
// signengine.Engine. The actual message-framing layer (USB HID reports,
// checksums, message-type headers) is out of scope for this module;
// hostwire exists to show how an adapter is expected to drive the engine.
package hostwire

import (
	"errors"

	"github.com/lightningnetwork/lnd/queue"

	"github.com/vault-hw/txsigner/coinset"
	"github.com/vault-hw/txsigner/keyderiv"
	"github.com/vault-hw/txsigner/signengine"
	"github.com/vault-hw/txsigner/txmsg"
)

// Transport is the minimal duplex the host-protocol adapter needs: ship
// one TxRequest or Failure, receive one TxAck.
type Transport interface {
	SendRequest(req txmsg.TxRequest) error
	SendFailure(f *txmsg.Failure) error
	RecvAck() (txmsg.TxAck, error)
}

// RunSession drives eng to completion against t, feeding one ack at a time
// and relaying exactly one outbound message per ack, per the engine's
// single-blocking-call contract. Each received ack passes through a
// queue.ConcurrentQueue before the engine processes it. Receiving and
// processing run in the same loop, so RecvAck is not called again until
// the engine has handled the previous ack; the queue does not let the
// transport read ahead. The engine processes one ack at a time.
func RunSession(t Transport, eng *signengine.Engine, inputsCount, outputsCount uint32,
	coin coinset.Params, root *keyderiv.Node, confirmer signengine.Confirmer) error {

	req, err := eng.Start(inputsCount, outputsCount, coin, root, confirmer)
	if err != nil {
		var f *txmsg.Failure
		if errors.As(err, &f) {
			log.Warnf("session start refused: %v", f)
			return t.SendFailure(f)
		}
		return err
	}
	if err := t.SendRequest(req); err != nil {
		return err
	}

	acks := queue.NewConcurrentQueue(16)
	acks.Start()
	defer acks.Stop()

	for {
		ack, err := t.RecvAck()
		if err != nil {
			return err
		}
		acks.ChanIn() <- ack

		raw := <-acks.ChanOut()
		next, err := eng.OnAck(raw.(txmsg.TxAck))
		if err != nil {
			var f *txmsg.Failure
			if errors.As(err, &f) {
				return t.SendFailure(f)
			}
			return err
		}

		if err := t.SendRequest(next); err != nil {
			return err
		}
		if next.RequestType == txmsg.TXFINISHED {
			return nil
		}
	}
}

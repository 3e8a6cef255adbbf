// Command txsignerd is a demonstration host-protocol adapter: it wires a
// signengine.Engine to a newline-delimited JSON transport over stdio, so
// the engine can be driven from a shell pipeline during development. The
// real message-framing layer (USB HID reports) is out of scope for this
// module; this binary exists only to exercise the engine end to end.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/go-errors/errors"
	"github.com/jessevdk/go-flags"

	"github.com/vault-hw/txsigner/coinset"
	"github.com/vault-hw/txsigner/hostwire"
	"github.com/vault-hw/txsigner/keyderiv"
	"github.com/vault-hw/txsigner/signengine"
	"github.com/vault-hw/txsigner/txmsg"
)

type config struct {
	ExtendedKey string `long:"xprv" description:"BIP-32 extended private key the session signs from" required:"true"`
	InputsCount uint32 `long:"inputs" description:"number of inputs in the transaction being signed" required:"true"`
	OutputsCount uint32 `long:"outputs" description:"number of outputs in the transaction being signed" required:"true"`
	AutoConfirm bool   `long:"yes" description:"answer every confirmation prompt with yes, for scripted runs"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, wrappedError(err))
		os.Exit(1)
	}
}

func wrappedError(err error) error {
	return errors.Wrap(err, 1)
}

func run() error {
	var cfg config
	if _, err := flags.Parse(&cfg); err != nil {
		return wrappedError(err)
	}

	key, err := hdkeychain.NewKeyFromString(cfg.ExtendedKey)
	if err != nil {
		return wrappedError(err)
	}
	root := keyderiv.NewNode(key)

	t := newStdioTransport(os.Stdin, os.Stdout)
	confirmer := newConsoleConfirmer(cfg.AutoConfirm)
	eng := signengine.NewEngine()

	log.Infof("starting session: %d inputs, %d outputs", cfg.InputsCount, cfg.OutputsCount)
	return hostwire.RunSession(t, eng, cfg.InputsCount, cfg.OutputsCount, coinset.Bitcoin, root, confirmer)
}

// stdioTransport frames one txmsg value per line as JSON. It is a
// development aid, not a specification of the device's real wire format.
type stdioTransport struct {
	enc *json.Encoder
	dec *json.Decoder
}

func newStdioTransport(in *os.File, out *os.File) *stdioTransport {
	return &stdioTransport{
		enc: json.NewEncoder(out),
		dec: json.NewDecoder(bufio.NewReader(in)),
	}
}

func (t *stdioTransport) SendRequest(req txmsg.TxRequest) error {
	return t.enc.Encode(req)
}

func (t *stdioTransport) SendFailure(f *txmsg.Failure) error {
	return t.enc.Encode(f)
}

func (t *stdioTransport) RecvAck() (txmsg.TxAck, error) {
	var ack txmsg.TxAck
	if err := t.dec.Decode(&ack); err != nil {
		return txmsg.TxAck{}, err
	}
	return ack, nil
}

// consoleConfirmer answers confirmation prompts from stdin, or always
// yes when autoConfirm is set, for non-interactive runs.
type consoleConfirmer struct {
	autoConfirm bool
	r           *bufio.Reader
}

func newConsoleConfirmer(autoConfirm bool) *consoleConfirmer {
	return &consoleConfirmer{autoConfirm: autoConfirm, r: bufio.NewReader(os.Stdin)}
}

func (c *consoleConfirmer) prompt(msg string) bool {
	if c.autoConfirm {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", msg)
	line, _ := c.r.ReadString('\n')
	return line == "y\n" || line == "yes\n"
}

func (c *consoleConfirmer) ConfirmOutput(amount btcutil.Amount, address string) bool {
	return c.prompt(fmt.Sprintf("send %s to %s", amount, address))
}

func (c *consoleConfirmer) ConfirmFeeOverThreshold(fee btcutil.Amount) bool {
	return c.prompt(fmt.Sprintf("fee %s exceeds the configured threshold", fee))
}

func (c *consoleConfirmer) ConfirmTransaction(totalAmount, fee btcutil.Amount) bool {
	return c.prompt(fmt.Sprintf("send %s, fee %s", totalAmount, fee))
}

package main

import (
	"github.com/btcsuite/btclog/v2"

	"github.com/vault-hw/txsigner/build"
	"github.com/vault-hw/txsigner/hostwire"
	"github.com/vault-hw/txsigner/signengine"
)

var log btclog.Logger

func init() {
	logger := build.NewSubLogger("TXSD", nil)
	log = logger
	signengine.UseLogger(logger)
	hostwire.UseLogger(logger)
}

package keyderiv

import (
	"github.com/btcsuite/btclog/v2"

	"github.com/vault-hw/txsigner/build"
)

// log is initialized with no output filters; the package stays silent
// until UseLogger is called.
var log btclog.Logger

func init() {
	UseLogger(build.NewSubLogger("KDRV", nil))
}

// DisableLog disables all library log output.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

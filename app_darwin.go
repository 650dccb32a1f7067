package common

import (
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

func Initialize() {
	signal.Ignore(syscall.SIGPIPE)
	log.Info("go runtime initialized")
}

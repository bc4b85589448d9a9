package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamevidea/bedrock/session"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		addr        string
		displayName string
		verbose     bool
	)

	flag.StringVar(&addr, "addr", "127.0.0.1:19132", "address of the Bedrock server to connect to")
	flag.StringVar(&displayName, "name", "Steve", "offline display name to connect with")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	sess, err := session.New(addr, session.Options{
		DisplayName: displayName,
		Log:         log,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to construct session")
	}

	sess.OnSpawn.On(func(struct{}) {
		log.Info("spawned into the world")
	})

	sess.OnPacket.On(func(pk packet.Packet) {
		if text, ok := pk.(*packet.Text); ok {
			log.WithField("type", text.TextType).Info(text.Message)
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("session ended")
	}
}

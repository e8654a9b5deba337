// bitmesh-node runs a standalone Bitmessage protocol engine node: it
// listens for peer connections, gossips objects, and answers pubkey
// requests for whatever identities are configured.
//
// Usage:
//
//	bitmesh-node [options]
//
// Options:
//
//	-listen   TCP listen address (default: :8444)
//	-connect  Seed peer address to dial at startup, repeatable
//	-identity Generate and print a fresh address on the given stream, then exit
//
// The node participates in stream 1 only; there is no option to choose
// other streams.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/bitmesh"
	"github.com/wirebit/bitmesh/pkg/ports"
)

type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	listenAddr := flag.String("listen", ":8444", "TCP listen address")
	identityStream := flag.Uint64("identity", 0, "generate a fresh address on this stream and exit (0 disables)")
	var connect stringList
	flag.Var(&connect, "connect", "seed peer address to dial at startup (repeatable)")
	flag.Parse()

	if *identityStream != 0 {
		priv, addr, err := address.GenerateIdentity(4, *identityStream)
		if err != nil {
			log.Fatalf("generating identity: %v", err)
		}
		fmt.Println(addr.String())
		fmt.Printf("signing key:    %x\n", priv.SigningKey.Bytes())
		fmt.Printf("encryption key: %x\n", priv.EncryptionKey.Bytes())
		return
	}

	addresses := bitmesh.NewMemoryAddressRepository()
	priv, addr, err := address.GenerateIdentity(4, 1)
	if err != nil {
		log.Fatalf("generating default identity: %v", err)
	}
	addresses.AddIdentity(ports.Identity{Address: addr, Private: priv})
	log.Printf("node identity: %s", addr.String())

	node, err := bitmesh.NewNode(bitmesh.NodeConfig{
		ListenAddr: *listenAddr,
		Streams:    []uint64{1},
		SeedPeers:  connect,
		Addresses:  addresses,
		Messages:   bitmesh.NewMemoryMessageRepository(),
		OnStateChanged: func(s bitmesh.NodeState) {
			log.Printf("node state: %s", s)
		},
	})
	if err != nil {
		log.Fatalf("creating node: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := node.Start(ctx); err != nil {
		log.Fatalf("starting node: %v", err)
	}

	<-ctx.Done()
	log.Println("shutting down...")
	if err := node.Stop(); err != nil {
		log.Fatalf("stopping node: %v", err)
	}
}

package main

import (
	"crypto/rand"
	"fmt"

	"github.com/quorumnet/threshold-keys/internal/params"
	"github.com/quorumnet/threshold-keys/pkg/consortium"
	"github.com/quorumnet/threshold-keys/pkg/party"
	"github.com/quorumnet/threshold-keys/pkg/pool"
)

func main() {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	fmt.Println("Initializing consortium with 5 members and threshold 3...")
	km, err := consortium.NewKeyManager(rand.Reader, pl, 3, 5, params.BitsSafePrime)
	if err != nil {
		panic(err)
	}

	message := []byte("Block #1000 checkpoint")

	// First three members sign
	sig, err := km.Sign(message, []party.ID{1, 2, 3})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Initial signature valid: %v\n", km.Verify(message, sig))

	fmt.Println("\nAdding new member (ID: 6)...")
	member, err := km.AddMember(6)
	fmt.Printf("New member added: %v\n", err == nil && member.Active)

	// Sign with the new member in the quorum
	sig, err = km.Sign(message, []party.ID{6, 2, 3})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Signature with new member valid: %v\n", km.Verify(message, sig))

	fmt.Println("\nRemoving member (ID: 1)...")
	err = km.RemoveMember(1)
	fmt.Printf("Member removed: %v\n", err == nil)

	// The removed member no longer counts towards a quorum
	_, err = km.Sign(message, []party.ID{1, 2, 3})
	fmt.Printf("Signature with removed member: %v\n", err)

	// The survivors still sign for the unchanged consortium key
	sig, err = km.Sign(message, []party.ID{2, 3, 4})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Signature with remaining members valid: %v\n", km.Verify(message, sig))
}

package main

import (
	"fmt"

	"rete.backend/internal/infrastructure/blockchain"
)

var printfFn = fmt.Printf

// Prints the revert selectors the chain gateway decodes, for matching raw
// revert data seen in explorer traces.
func main() {
	sigs := append([]string{"Error(string)", "Panic(uint256)"}, blockchain.KnownRevertErrors...)
	for _, sig := range sigs {
		printfFn("%s: 0x%s\n", sig, blockchain.ErrorSelector(sig))
	}
}

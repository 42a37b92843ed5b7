package main

import (
	"os"

	"github.com/kashguard/go-recovery-wallet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

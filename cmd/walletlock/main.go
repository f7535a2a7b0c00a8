package main

import "walletlock/cmd/walletlock/cmd"

func main() {
	cmd.Execute()
}

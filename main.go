package main

import "github/chapool/zksync-wallet/cmd"

func main() {
	cmd.Execute()
}

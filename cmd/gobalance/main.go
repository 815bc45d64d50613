package main

import "github.com/dbsmedya/gobalance/cmd/gobalance/cmd"

func main() {
	cmd.Execute()
}

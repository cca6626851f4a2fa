package main

import "github.com/jrsteele09/homereno-client/cmd/renoctl/cmd"

func main() {
	cmd.Execute()
}

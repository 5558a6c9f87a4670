package main

import "github.com/complygate/complygate/cmd/complygate"

func main() {
	complygate.Execute()
}

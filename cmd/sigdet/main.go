package main

import (
	"github.com/MeKo-Tech/sigdet/cmd/sigdet/cmd"
)

func main() {
	cmd.Execute()
}

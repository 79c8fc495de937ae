package main

import (
	_ "time/tzdata"

	"github.com/sagan/auxseed/cmd"

	_ "github.com/sagan/auxseed/client/all"
	_ "github.com/sagan/auxseed/cmd/all"
	_ "github.com/sagan/auxseed/site/all"
)

func main() {
	cmd.Execute()
}

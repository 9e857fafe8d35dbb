package main

import "github.com/mohammed-shakir/geomap-sync/cmd/geomapctl/cmd"

func main() {
	cmd.Execute()
}

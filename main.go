package main

import "github.com/frahmantamala/storefront/cmd"

func main() {
	cmd.Execute()
}

package main

import "appsales/cmd/appsales/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/peoplehub/hr-backoffice/cmd"

func main() {
	cmd.Execute()
}

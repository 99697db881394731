package main

import "eventreg-backend/cmd/formsctl/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/OpenTraceLab/OpenTraceProg/cmd/otprog/cmd"

func main() {
	cmd.Execute()
}

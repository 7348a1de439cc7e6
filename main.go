// Package main is the entry point for the Bouncer CLI.
package main

import "github.com/BurtTheCoder/bouncer/cmd"

func main() {
	cmd.Execute()
}

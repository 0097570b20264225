// Command rapport manages contacts, meetings, reminders and shares, and
// serves them over HTTP with "rapport serve".
package main

import "github.com/mesh-intelligence/rapport/internal/cli"

func main() {
	cli.Execute()
}

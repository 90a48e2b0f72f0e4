package main

import (
	"benefits-setup/cmd" // CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which parses arguments and runs the selected command.
//
// benefits-setup provisions what the Student Benefits Hub needs outside its own code:
//   - A Cloudflare Tunnel with an ingress rule and a proxied CNAME for the local service,
//     merged into whatever the tunnel already routes
//   - The GitHub App used by the workflows, registered through the manifest flow with a
//     local callback server racing a pasted redirect URL
//   - Reddit API credentials, collected in a guided walkthrough
//   - The cloudflared connector binary, downloaded from GitHub releases
//
// Credentials produced along the way are stored as repository secrets through the gh CLI
// when it is available and printed for manual entry otherwise.
//
// Every run is safe to repeat: existing tunnels, ingress rules and DNS records are reused
// and only updated when they differ from what was requested.
func main() {
	cmd.Execute()
}

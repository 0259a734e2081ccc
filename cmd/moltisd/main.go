// moltisd is the gateway's single binary: it serves the provider registry,
// sandbox router, browser pool, channel sink, and terminal multiplexer
// behind one HTTP listener, plus config/credential/sandbox-image management
// subcommands, grounded on the teacher's cmd/cobra_cli.go command tree and
// cmd/alex-web/main.go's thin-entrypoint shape.
package main

import "log"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("moltisd: %v", err)
	}
}

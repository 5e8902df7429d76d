// Command permserver is a thin demonstration server exercising the
// permissions core's write-validation and read-filtering paths over
// HTTP. It is glue for the demo, not a protocol the core owns.
package main

import (
	"context"
	"log"
)

func main() {
	ctx := context.Background()

	app, cleanup, err := InitializeApp(ctx)
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

/*
 * nbody runs a multithreaded Barnes-Hut gravity simulation configured via
 * environment variables, logging summary statistics and optionally dumping
 * PNG frames of the particle cloud and quadtree extents
 */
package main

import (
	"log"

	"github.com/avanlint/particlemodel/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

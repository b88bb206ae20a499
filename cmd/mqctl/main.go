package main

import (
	"os"

	"github.com/reddit/posixmq.go/cmd/lib/mqctl"
)

func main() {
	os.Exit(mqctl.Run())
}

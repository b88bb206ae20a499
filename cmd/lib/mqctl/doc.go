// Package mqctl implements the logic for the mqctl binary,
// a command line tool to create, inspect, feed and drain posix message queues.
//
// To use this library, create a package with main function as:
//
//	func main() {
//		os.Exit(mqctl.Run())
//	}
//
// Usage:
//
//	mqctl [-config mqctl.yaml] [-log-level debug] <command> [flags] [args]
//
// Commands:
//
//	create NAME          create the queue (or open it if it exists)
//	send NAME MSG...     publish each MSG
//	receive NAME         print messages, -count limits how many
//	attrs NAME           print the queue attributes
//	unlink NAME          remove the queue name
//	notify NAME          register for notifications and print delivered messages
//	ls                   list queues with their status
//	watch                print queues being created, removed and changed
package mqctl

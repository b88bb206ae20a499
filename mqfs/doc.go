// Package mqfs inspects the linux mqueue filesystem.
//
// Each posix message queue of an ipc namespace shows up as a file under the
// mqueue mount (usually /dev/mqueue). Reading the file returns a status line
// like:
//
//	QSIZE:12         NOTIFY:0     SIGNO:10    NOTIFY_PID:4242
//
// List and Stat read that directory, and Watch reports queues being
// created, removed and changed through fsnotify.
package mqfs

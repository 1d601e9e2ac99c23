// Package watcher keeps a long-running serve process in step with its
// environment.
//
// Watcher follows the config file with fsnotify and invokes a reload
// callback after edits settle. The PID file helpers let a second invocation
// find and stop a running server.
//
// Example usage:
//
//	w, err := watcher.New(cfgPath, func() error {
//		return reload()
//	}, log)
//	if err != nil {
//		return err
//	}
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
package watcher

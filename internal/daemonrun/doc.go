// Package daemonrun assembles the daemon process: logger, log retention,
// collection store, external clients, pipeline registry, API server and the
// signal-driven shutdown. Both tekod and "teko serve" call Run.
package daemonrun

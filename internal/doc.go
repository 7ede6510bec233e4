// Package internal groups helpers private to goShell: audit holds the async
// event dispatcher and its sinks, rate holds Redis fixed-window counters,
// and signal holds observable values fed by external change notifications.
package internal

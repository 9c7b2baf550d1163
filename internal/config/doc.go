// Package config loads, merges and validates configuration for the sync
// daemon and the profile server.
//
// Sources are applied in order, later non-zero fields overriding earlier
// ones:
//  1. Built-in defaults
//  2. Environment variables
//  3. Command-line flags
//  4. JSON config file
//
// The entry points are [GetClientConfig] for the daemon and
// [GetServerConfig] for the server.
package config

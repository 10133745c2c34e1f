// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It gives the
// tracker, server, and persistence layers type-safe access to their
// settings while keeping configuration details out of business logic.
package config

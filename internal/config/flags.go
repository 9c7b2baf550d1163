package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds a host:port pair. It implements flag.Value.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses args into a partial config. Unknown flags are an error.
//
// Flags:
//
//	-a             server listen address host:port
//	-server        profile server base URL used by the daemon
//	-d             database DSN
//	-c / -config   JSON config file path
//	-log-level     zerolog level
//	-headless      run the daemon without the terminal console
//	-token         bearer token used by the daemon
//	-account       active account ID
//	-version       active data version
//	-device        device class (constrained|unconstrained)
//	-redis         Redis address for peer notifications
//	-metrics       daemon metrics listen address
//	-token-sign-key, -token-issuer, -token-duration
//	-request-timeout
func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("profile-sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var serverAddress NetAddress
	var adapterAddress string
	var databaseDSN string
	var jsonConfigPath string
	var logLevel string
	var headless bool
	var token, accountID string
	var version int
	var deviceClass string
	var redisAddress string
	var metricsAddress string
	var tokenSignKey, tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&adapterAddress, "server", "", "Profile server base URL")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&logLevel, "log-level", "", "Log level")
	fs.BoolVar(&headless, "headless", false, "Run without the terminal console")
	fs.StringVar(&token, "token", "", "Bearer token")
	fs.StringVar(&accountID, "account", "", "Active account ID")
	fs.IntVar(&version, "version", 0, "Active data version")
	fs.StringVar(&deviceClass, "device", "", "Device class: constrained or unconstrained")
	fs.StringVar(&redisAddress, "redis", "", "Redis address for peer notifications")
	fs.StringVar(&metricsAddress, "metrics", "", "Metrics listen address")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			LogLevel:      logLevel,
			Headless:      headless,
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Storage: Storage{DB: DB{DSN: databaseDSN}},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    adapterAddress,
			RequestTimeout: requestTimeout,
		},
		Auth: Auth{
			Token:     token,
			AccountID: accountID,
			Version:   version,
		},
		Sync:         Sync{DeviceClass: deviceClass},
		Notifier:     Notifier{RedisAddress: redisAddress},
		Metrics:      Metrics{Address: metricsAddress},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns host:port, or "" when unset.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses host:port. The host must be an IP address or "localhost".
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"

	"github.com/spf13/pflag"
)

// ListenerBuilder contains the data and logic needed to create a network listener. Don't create
// instances of this type directly, use the NewListener function instead.
type ListenerBuilder struct {
	logger       *slog.Logger
	network      string
	address      string
	tlsCrt       string
	tlsKey       string
	tlsProtocols []string
}

// NewListener creates a builder that can then be used to configure and create a listener.
func NewListener() *ListenerBuilder {
	return &ListenerBuilder{
		network: "tcp",
	}
}

// SetLogger sets the logger. This is mandatory.
func (b *ListenerBuilder) SetLogger(value *slog.Logger) *ListenerBuilder {
	b.logger = value
	return b
}

// SetFlags sets the address and TLS files from the flags added with AddListenerFlags for the
// listener with the given name.
func (b *ListenerBuilder) SetFlags(flags *pflag.FlagSet, name string) *ListenerBuilder {
	if flags == nil {
		return b
	}

	var (
		flag  string
		value string
		err   error
	)
	failure := func() {
		if b.logger != nil {
			b.logger.Error(
				"Failed to get flag value",
				slog.String("flag", flag),
				slog.String("error", err.Error()),
			)
		}
	}

	// Address:
	flag = listenerFlagName(name, listenerAddrFlagSuffix)
	value, err = flags.GetString(flag)
	if err != nil {
		failure()
	} else {
		b.SetAddress(value)
	}

	// TLS certificate:
	flag = listenerFlagName(name, listenerTLSCrtFlagSuffix)
	value, err = flags.GetString(flag)
	if err != nil {
		failure()
	} else {
		b.SetTLSCrt(value)
	}

	// TLS key:
	flag = listenerFlagName(name, listenerTLSKeyFlagSuffix)
	value, err = flags.GetString(flag)
	if err != nil {
		failure()
	} else {
		b.SetTLSKey(value)
	}

	return b
}

// SetNetwork sets the network, 'tcp' by default.
func (b *ListenerBuilder) SetNetwork(value string) *ListenerBuilder {
	b.network = value
	return b
}

// SetAddress sets the listen address. This is mandatory.
func (b *ListenerBuilder) SetAddress(value string) *ListenerBuilder {
	b.address = value
	return b
}

func (b *ListenerBuilder) SetTLSCrt(value string) *ListenerBuilder {
	b.tlsCrt = value
	return b
}

func (b *ListenerBuilder) SetTLSKey(value string) *ListenerBuilder {
	b.tlsKey = value
	return b
}

func (b *ListenerBuilder) AddTLSProtocol(value string) *ListenerBuilder {
	b.tlsProtocols = append(b.tlsProtocols, value)
	return b
}

// Build uses the data stored in the builder to create the listener.
func (b *ListenerBuilder) Build() (result net.Listener, err error) {
	// Check parameters:
	if b.logger == nil {
		err = errors.New("logger is mandatory")
		return
	}
	if b.network == "" {
		err = errors.New("network is mandatory")
		return
	}
	if b.address == "" {
		err = errors.New("address is mandatory")
		return
	}
	if b.tlsCrt != "" && b.tlsKey == "" {
		err = errors.New("TLS key is mandatory when certificate is specified")
		return
	}
	if b.tlsKey != "" && b.tlsCrt == "" {
		err = errors.New("TLS certificate is mandatory when key is specified")
		return
	}

	// Try to load the certificates
	var tlsCrt tls.Certificate
	if b.tlsCrt != "" && b.tlsKey != "" {
		tlsCrt, err = tls.LoadX509KeyPair(b.tlsCrt, b.tlsKey)
		if err != nil {
			err = fmt.Errorf("failed to load TLS key pair: %w", err)
			return
		}
		b.logger.Info(
			"Loaded TLS key and certificate",
			"key", b.tlsKey,
			"crt", b.tlsCrt,
		)
	}

	// Create the listener:
	listener, err := net.Listen(b.network, b.address)
	if err != nil {
		return
	}
	if tlsCrt.Certificate != nil {
		listener = tls.NewListener(listener, &tls.Config{
			Certificates: []tls.Certificate{
				tlsCrt,
			},
			NextProtos: slices.Clone(b.tlsProtocols),
		})
	}

	// Return the listener:
	result = listener

	return
}

// Names of the listeners:
const (
	APIListener     = "API"
	MetricsListener = "Metrics"
)

// Default addresses of the listeners. The API listens in all the interfaces because it is the
// port that the container exposes.
const (
	APIAddress     = "0.0.0.0:7860"
	MetricsAddress = "localhost:8008"
)

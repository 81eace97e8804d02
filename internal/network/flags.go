/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package network

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// AddListenerFlags adds to the given flag set the flags needed to configure a network listener.
// For example, if the name is 'API' it will add the following flags:
//
//	--api-listener-address - The listen address.
//	--api-listener-tls-crt - The TLS certificate file.
//	--api-listener-tls-key - The TLS key file.
func AddListenerFlags(set *pflag.FlagSet, name, addr string) {
	_ = set.String(
		listenerFlagName(name, listenerAddrFlagSuffix),
		addr,
		fmt.Sprintf("%s listen address.", name),
	)
	_ = set.String(
		listenerFlagName(name, listenerTLSCrtFlagSuffix),
		"",
		fmt.Sprintf(
			"File containing the TLS certificate of the %s listener. When empty the "+
				"listener will not use TLS.",
			name,
		),
	)
	_ = set.String(
		listenerFlagName(name, listenerTLSKeyFlagSuffix),
		"",
		fmt.Sprintf("File containing the TLS key of the %s listener.", name),
	)
}

// ListenerAddressFlagName returns the name of the address flag of the listener with the given
// name.
func ListenerAddressFlagName(name string) string {
	return listenerFlagName(name, listenerAddrFlagSuffix)
}

const (
	listenerAddrFlagSuffix   = "listener-address"
	listenerTLSCrtFlagSuffix = "listener-tls-crt"
	listenerTLSKeyFlagSuffix = "listener-tls-key"
)

func listenerFlagName(name, suffix string) string {
	return fmt.Sprintf("%s-%s", strings.ToLower(name), suffix)
}

//go:build !unix

package server

import "syscall"

// The runtime already enables address reuse where the platform supports it.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}

package connmanager

import (
	"net"
)

type connectionSet map[string]net.Conn

func (cs connectionSet) add(connection net.Conn) {
	cs[connection.RemoteAddr().String()] = connection
}

func (cs connectionSet) remove(connection net.Conn) {
	delete(cs, connection.RemoteAddr().String())
}

func (cs connectionSet) get(address string) (net.Conn, bool) {
	connection, ok := cs[address]
	return connection, ok
}

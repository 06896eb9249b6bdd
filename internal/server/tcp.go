package server

import (
	"bufio"
	"net"
	"time"

	"robots/internal/protocol"
	"robots/internal/wire"
)

const writeTimeout = 5 * time.Second

type tcpConnection struct {
	conn   net.Conn
	reader *wire.Reader
}

func NewTCPConnection(conn net.Conn) *tcpConnection {
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}
	return &tcpConnection{
		conn:   conn,
		reader: wire.NewReader(bufio.NewReader(conn)),
	}
}

func (c *tcpConnection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *tcpConnection) Read() (protocol.ClientMessage, error) {
	return protocol.ReadClient(c.reader)
}

func (c *tcpConnection) Write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.conn.Write(data)
	return err
}

func (c *tcpConnection) Close(errCode string) {
	c.conn.Close()
}

package ice

import (
	"net"

	itransport "github.com/pion/transport/v3"
)

// Socket is the opaque send/receive handle the core holds a non-owning
// reference to (spec.md §5: "Sockets are owned by the transport; the
// core holds non-owning references").
type Socket interface {
	LocalAddr() net.Addr
}

// Transport is the external collaborator responsible for socket
// ownership and datagram I/O (spec.md §6). Candidate gathering and STUN
// wire encoding live elsewhere; Transport only moves bytes.
type Transport interface {
	// GetRTPSocket returns the component-1 socket for stream.
	GetRTPSocket(stream int) (Socket, error)

	// GetRTCPSocket returns the component-2 socket for stream.
	GetRTCPSocket(stream int) (Socket, error)

	// GetRecvPort returns the local port bound for component
	// (ComponentRTP or ComponentRTCP) of stream.
	GetRecvPort(stream int, component uint16) (uint16, error)

	// SendPacket writes b to destIP:destPort through sock.
	SendPacket(sock Socket, b []byte, destIP string, destPort uint16) error
}

// udpSocket adapts a net.PacketConn (real or pion/transport/v3 vnet) to
// Socket.
type udpSocket struct {
	conn net.PacketConn
}

func (s *udpSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// netTransport is the default Transport, backed by an itransport.Net —
// either the host network stack or a pion/transport/v3 vnet.Net for
// simulated-network tests.
type netTransport struct {
	net itransport.Net

	rtpSockets  map[int]*udpSocket
	rtcpSockets map[int]*udpSocket
}

// NewNetTransport returns a Transport backed by n. Passing a real
// itransport.Net binds real sockets; passing a vnet.Net binds simulated
// ones for tests.
func NewNetTransport(n itransport.Net) Transport {
	return &netTransport{
		net:         n,
		rtpSockets:  make(map[int]*udpSocket),
		rtcpSockets: make(map[int]*udpSocket),
	}
}

func (t *netTransport) socketFor(stream int, component uint16) (*udpSocket, error) {
	var table map[int]*udpSocket
	switch component {
	case ComponentRTP:
		table = t.rtpSockets
	case ComponentRTCP:
		table = t.rtcpSockets
	default:
		return nil, ErrUnknownComponent
	}

	if sock, ok := table[stream]; ok {
		return sock, nil
	}

	conn, err := t.net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return nil, err
	}
	sock := &udpSocket{conn: conn}
	table[stream] = sock
	return sock, nil
}

func (t *netTransport) GetRTPSocket(stream int) (Socket, error) {
	return t.socketFor(stream, ComponentRTP)
}

func (t *netTransport) GetRTCPSocket(stream int) (Socket, error) {
	return t.socketFor(stream, ComponentRTCP)
}

func (t *netTransport) GetRecvPort(stream int, component uint16) (uint16, error) {
	sock, err := t.socketFor(stream, component)
	if err != nil {
		return 0, err
	}
	udpAddr, ok := sock.LocalAddr().(*net.UDPAddr)
	if !ok {
		return 0, ErrNoSocketForComponent
	}
	return uint16(udpAddr.Port), nil
}

func (t *netTransport) SendPacket(sock Socket, b []byte, destIP string, destPort uint16) error {
	s, ok := sock.(*udpSocket)
	if !ok {
		return ErrNoSocketForComponent
	}
	dest := &net.UDPAddr{IP: net.ParseIP(destIP), Port: int(destPort)}
	_, err := s.conn.WriteTo(b, dest)
	return err
}

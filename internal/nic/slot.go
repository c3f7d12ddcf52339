package nic

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
)

type slotState uint8

const (
	stateClosed slotState = iota
	stateListening
	stateConnecting
	stateConnected
	stateError
)

type slot struct {
	ctrl  *Controller
	index int

	localPort  uint16
	remotePort uint16
	dmaAddr    uint16
	dmaLength  uint8

	scratch    [256]byte
	scratchLen int

	mu            sync.Mutex
	state         slotState
	conn          net.Conn
	listener      net.Listener
	pendingConn   net.Conn
	remoteClosed  bool
	dataReady     bool
	queue         [][]byte
	lastRecvLen   uint8
}

func newSlot(c *Controller, idx int) *slot { return &slot{ctrl: c, index: idx} }

func (s *slot) writeScratch(b uint8) {
	if b == 0 {
		s.scratchLen = 0
		return
	}
	if s.scratchLen < len(s.scratch) {
		s.scratch[s.scratchLen] = b
		s.scratchLen++
	}
}

func (s *slot) hostName() string { return string(s.scratch[:s.scratchLen]) }

func (s *slot) statusByte() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var v uint8
	switch s.state {
	case stateConnected:
		v |= StatusConnected
	case stateConnecting:
		v |= StatusConnecting
	case stateListening:
		v |= StatusListening
	case stateError:
		v |= StatusError
	}
	if s.remoteClosed {
		v |= StatusRemoteClosed
	}
	if s.dataReady {
		v |= StatusDataReady
	}
	if s.pendingConn != nil {
		v |= StatusPendingAccept
	}
	return v
}

func (s *slot) lastMessageLen() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRecvLen
}

func (s *slot) setState(st slotState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *slot) setError() { s.setState(stateError) }

func (s *slot) connect() {
	host := s.hostName()
	port := s.remotePort
	s.setState(stateConnecting)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
		defer cancel()
		conn, err := dialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
		if err != nil {
			s.setError()
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.state = stateConnected
		s.mu.Unlock()
		s.startReader(conn)
	}()
}

func (s *slot) listen() {
	addr := fmt.Sprintf("127.0.0.1:%d", s.localPort)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		s.setError()
		return
	}
	s.mu.Lock()
	s.listener = l
	s.state = stateListening
	if tcpAddr, ok := l.Addr().(*net.TCPAddr); ok {
		s.localPort = uint16(tcpAddr.Port)
	}
	s.mu.Unlock()

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			if s.pendingConn != nil {
				s.mu.Unlock()
				conn.Close()
				continue
			}
			s.pendingConn = conn
			s.mu.Unlock()
		}
	}()
}

func (s *slot) accept() {
	s.mu.Lock()
	conn := s.pendingConn
	s.pendingConn = nil
	if conn == nil {
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.state = stateConnected
	s.mu.Unlock()
	s.startReader(conn)
}

func (s *slot) startReader(conn net.Conn) {
	go func() {
		for {
			var lenBuf [1]byte
			if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
				s.mu.Lock()
				s.remoteClosed = true
				s.queue = nil
				s.mu.Unlock()
				s.ctrl.notify(s.index)
				return
			}
			payload := make([]byte, lenBuf[0])
			if lenBuf[0] > 0 {
				if _, err := io.ReadFull(conn, payload); err != nil {
					s.mu.Lock()
					s.remoteClosed = true
					s.queue = nil
					s.mu.Unlock()
					s.ctrl.notify(s.index)
					return
				}
			}
			s.mu.Lock()
			s.queue = append(s.queue, payload)
			s.dataReady = true
			s.mu.Unlock()
			s.ctrl.notify(s.index)
		}
	}()
}

func (s *slot) send(mem memoryBus) {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == stateConnected
	s.mu.Unlock()
	if !connected || conn == nil {
		s.setError()
		return
	}

	n := s.dmaLength
	frame := make([]byte, 1+int(n))
	frame[0] = n
	for i := 0; i < int(n); i++ {
		frame[1+i] = mem.Read(s.dmaAddr + uint16(i))
	}
	if _, err := conn.Write(frame); err != nil {
		s.setError()
	}
}

func (s *slot) recv(mem memoryBus) {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.lastRecvLen = 0
		s.dataReady = false
		s.mu.Unlock()
		return
	}
	frame := s.queue[0]
	s.queue = s.queue[1:]
	if len(s.queue) == 0 {
		s.dataReady = false
	}
	s.lastRecvLen = uint8(len(frame))
	s.mu.Unlock()

	for i, b := range frame {
		mem.Write(s.dmaAddr+uint16(i), b)
	}
}

func (s *slot) disconnect() {
	s.mu.Lock()
	conn := s.conn
	listener := s.listener
	s.conn = nil
	s.listener = nil
	s.pendingConn = nil
	s.queue = nil
	s.dataReady = false
	s.remoteClosed = false
	s.state = stateClosed
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	if listener != nil {
		listener.Close()
	}
}

package nic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/barryw/novavm/internal/nic"
)

type flatMem struct {
	cells [65536]uint8
}

func (m *flatMem) Read(addr uint16) uint8     { return m.cells[addr] }
func (m *flatMem) Write(addr uint16, v uint8) { m.cells[addr] = v }

func writeWord(c *nic.Controller, base uint16, reg, value uint16) {
	c.Write(base+reg, uint8(value))
	c.Write(base+reg+1, uint8(value>>8))
}

func waitFor(t *testing.T, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestListenConnectSendRecvRoundTrip(t *testing.T) {
	serverMem := &flatMem{}
	clientMem := &flatMem{}
	server := nic.New(0xA400, serverMem)
	client := nic.New(0xA500, clientMem)

	server.Write(0xA400+nic.RegSlotSelect, 0)
	writeWord(server, 0xA400, nic.RegLocalPortLo, 0) // port 0: host assigns one
	server.Write(0xA400+nic.RegCommand, nic.CmdListen)

	waitFor(t, func() bool {
		return server.Read(0xA400+nic.RegSlotStatus)&nic.StatusListening != 0
	})
	port := uint16(server.Read(0xA400+nic.RegLocalPortLo)) | uint16(server.Read(0xA400+nic.RegLocalPortHi))<<8
	require.NotZero(t, port)

	client.Write(0xA500+nic.RegSlotSelect, 0)
	for _, ch := range "127.0.0.1" {
		client.Write(0xA500+nic.RegHostScratch, uint8(ch))
	}
	client.Write(0xA500+nic.RegHostScratch, 0)
	writeWord(client, 0xA500, nic.RegRemotePortLo, port)
	client.Write(0xA500+nic.RegCommand, nic.CmdConnect)

	waitFor(t, func() bool {
		return client.Read(0xA500+nic.RegSlotStatus)&nic.StatusConnected != 0
	})
	waitFor(t, func() bool {
		return server.Read(0xA400+nic.RegSlotStatus)&nic.StatusPendingAccept != 0
	})
	server.Write(0xA400+nic.RegCommand, nic.CmdAccept)
	waitFor(t, func() bool {
		return server.Read(0xA400+nic.RegSlotStatus)&nic.StatusConnected != 0
	})

	msg := []byte("NOVA")
	for i, b := range msg {
		clientMem.Write(uint16(0x1000+i), b)
	}
	writeWord(client, 0xA500, nic.RegDMAAddrLo, 0x1000)
	client.Write(0xA500+nic.RegDMALength, uint8(len(msg)))
	client.Write(0xA500+nic.RegCommand, nic.CmdSend)

	waitFor(t, func() bool {
		return server.Read(0xA400+nic.RegSlotStatus)&nic.StatusDataReady != 0
	})

	writeWord(server, 0xA400, nic.RegDMAAddrLo, 0x2000)
	server.Write(0xA400+nic.RegCommand, nic.CmdRecv)

	gotLen := server.Read(0xA400 + nic.RegMessageLength)
	require.Equal(t, uint8(len(msg)), gotLen)
	for i, b := range msg {
		require.Equal(t, b, serverMem.Read(uint16(0x2000+i)))
	}
}

func TestSlotSelectClampsToLowTwoBits(t *testing.T) {
	c := nic.New(0xA400, &flatMem{})
	c.Write(0xA400+nic.RegSlotSelect, 0xFE) // 0b11111110 -> clamps to 2
	require.Equal(t, uint8(2), c.Read(0xA400+nic.RegSlotSelect))
}

func TestDisconnectReturnsSlotToClosed(t *testing.T) {
	c := nic.New(0xA400, &flatMem{})
	c.Write(0xA400+nic.RegSlotSelect, 1)
	c.Write(0xA400+nic.RegCommand, nic.CmdListen)
	waitFor(t, func() bool {
		return c.Read(0xA400+nic.RegSlotStatus)&nic.StatusListening != 0
	})
	c.Write(0xA400+nic.RegCommand, nic.CmdDisconnect)
	require.Equal(t, uint8(0), c.Read(0xA400+nic.RegSlotStatus))
}

func TestIRQStatusReadClearsAtomically(t *testing.T) {
	c := nic.New(0xA400, &flatMem{})
	fired := 0
	c.OnIRQ(func() { fired++ })
	c.Write(0xA400+nic.RegIRQEnable, 0x0F)

	c.Write(0xA400+nic.RegSlotSelect, 0)
	c.Write(0xA400+nic.RegCommand, nic.CmdListen)
	waitFor(t, func() bool { return c.Read(0xA400+nic.RegSlotStatus)&nic.StatusListening != 0 })

	port := uint16(c.Read(0xA400+nic.RegLocalPortLo)) | uint16(c.Read(0xA400+nic.RegLocalPortHi))<<8
	other := nic.New(0xA500, &flatMem{})
	other.Write(0xA500+nic.RegSlotSelect, 0)
	for _, ch := range "127.0.0.1" {
		other.Write(0xA500+nic.RegHostScratch, uint8(ch))
	}
	other.Write(0xA500+nic.RegHostScratch, 0)
	writeWord(other, 0xA500, nic.RegRemotePortLo, port)
	other.Write(0xA500+nic.RegCommand, nic.CmdConnect)

	waitFor(t, func() bool { return c.Read(0xA400+nic.RegSlotStatus)&nic.StatusPendingAccept != 0 })
	c.Write(0xA400+nic.RegCommand, nic.CmdAccept)
	waitFor(t, func() bool { return other.Read(0xA500+nic.RegSlotStatus)&nic.StatusConnected != 0 })

	other.Write(0xA500+nic.RegDMALength, 0)
	other.Write(0xA500+nic.RegCommand, nic.CmdSend)

	waitFor(t, func() bool { return fired > 0 })
	status := c.Read(0xA400 + nic.RegIRQStatus)
	require.Equal(t, uint8(0x01), status)
	require.Equal(t, uint8(0), c.Read(0xA400+nic.RegIRQStatus))
}

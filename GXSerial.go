package gxserialrpc

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Gurux/gxcommon-go"
	"github.com/Gurux/gxserial-go"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Media is the duplex byte stream used by the client.
// Read blocks until bytes are available. Read returns an error after Close.
type Media interface {
	// Open opens the stream. Opening an open media does nothing.
	Open() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	// String returns the media description for logging.
	String() string
}

// GXSerialMedia implements Media on a gxserial serial port.
type GXSerialMedia struct {
	mu     sync.Mutex
	serial *gxserial.GXSerial
	// received is fed by the asynchronous receive event.
	received *synchronousMediaBase
	opened   atomic.Bool
	closed   atomic.Bool
	log      zerolog.Logger
	// Printer for localized messages.
	p atomic.Pointer[message.Printer]
}

// DefaultPort returns the first available serial port.
func DefaultPort() (string, error) {
	names, err := gxserial.GetPortNames()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	}
	if len(names) == 0 {
		return "", ErrDeviceNotFound
	}
	return names[0], nil
}

// NewGXSerialMedia creates a serial media from the settings.
// When no port is set the first available port is used.
func NewGXSerialMedia(s Settings, log zerolog.Logger) (*GXSerialMedia, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Port == "" {
		port, err := DefaultPort()
		if err != nil {
			return nil, err
		}
		s.Port = port
	}
	parity, _ := s.parity()
	stopBits, _ := s.stopBits()
	traceLevel, _ := s.traceLevel()
	g := &GXSerialMedia{
		serial:   gxserial.NewGXSerial(s.Port, gxcommon.BaudRate(s.BaudRate), s.DataBits, stopBits, parity),
		received: newGXSynchronousMediaBase(),
		log:      log.With().Str("port", s.Port).Logger(),
	}
	g.Localize(language.AmericanEnglish)
	if s.Language != "" {
		tag, err := language.Parse(s.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: language: %v", ErrInvalidSettings, err)
		}
		g.Localize(tag)
	}
	if err := g.serial.SetTrace(traceLevel); err != nil {
		return nil, err
	}
	g.serial.SetOnReceived(g.onReceived)
	g.serial.SetOnError(g.onError)
	g.serial.SetOnTrace(func(m gxcommon.IGXMedia, e gxcommon.TraceEventArgs) {
		g.log.Trace().Msg(e.String())
	})
	g.serial.SetOnMediaStateChange(func(m gxcommon.IGXMedia, e gxcommon.MediaStateEventArgs) {
		g.log.Debug().Str("state", e.State().String()).Msg(g.p.Load().Sprintf("msg.media_state"))
	})
	return g, nil
}

func (g *GXSerialMedia) onReceived(m gxcommon.IGXMedia, e gxcommon.ReceiveEventArgs) {
	data, err := gxcommon.ToBytes(e.Data(), binary.BigEndian)
	if err != nil {
		g.log.Error().Err(err).Msg(g.p.Load().Sprintf("msg.receive_failed"))
		return
	}
	g.received.Append(data)
}

func (g *GXSerialMedia) onError(m gxcommon.IGXMedia, err error) {
	g.log.Error().Err(err).Msg(g.p.Load().Sprintf("msg.media_error"))
	// The gxserial reader stops after reporting an error.
	if g.opened.Load() && !g.closed.Load() {
		g.received.Close(fmt.Errorf("%w: %w", ErrConnectionLost, err))
	}
}

// Open implements Media.
func (g *GXSerialMedia) Open() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed.Load() {
		return errors.New(g.p.Load().Sprintf("msg.media_closed", g.serial.Port))
	}
	if err := g.serial.Validate(); err != nil {
		return err
	}
	if err := g.serial.Open(); err != nil {
		return err
	}
	g.opened.Store(true)
	return nil
}

// Read implements Media.
func (g *GXSerialMedia) Read(p []byte) (int, error) {
	return g.received.Read(p)
}

// Write implements Media.
func (g *GXSerialMedia) Write(p []byte) (int, error) {
	if err := g.serial.Send(p, ""); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements Media.
func (g *GXSerialMedia) Close() error {
	if g.closed.Swap(true) {
		return nil
	}
	g.received.Close(nil)
	return g.serial.Close()
}

// String implements Media.
func (g *GXSerialMedia) String() string {
	return g.serial.String()
}

// BytesSent returns the number of bytes written to the port.
func (g *GXSerialMedia) BytesSent() uint64 {
	return g.serial.GetBytesSent()
}

// BytesReceived returns the number of bytes read from the port.
func (g *GXSerialMedia) BytesReceived() uint64 {
	return g.serial.GetBytesReceived()
}

//nolint:errcheck
func init() {
	// --- English (default) ---
	message.SetString(language.AmericanEnglish, "msg.media_state", "Media state changed")
	message.SetString(language.AmericanEnglish, "msg.media_error", "Serial port error")
	message.SetString(language.AmericanEnglish, "msg.media_closed", "Serial port %s is closed")
	message.SetString(language.AmericanEnglish, "msg.receive_failed", "Failed to read received data")
	message.SetString(language.AmericanEnglish, "msg.settling", "Waiting for the device to settle")
	message.SetString(language.AmericanEnglish, "msg.connection_lost", "Connection to the device lost")
	message.SetString(language.AmericanEnglish, "msg.debug_line", "Device debug")

	// --- German (de) ---
	message.SetString(language.German, "msg.media_state", "Medienstatus geändert")
	message.SetString(language.German, "msg.media_error", "Fehler an der seriellen Schnittstelle")
	message.SetString(language.German, "msg.media_closed", "Serielle Schnittstelle %s ist geschlossen")
	message.SetString(language.German, "msg.receive_failed", "Empfangene Daten konnten nicht gelesen werden")
	message.SetString(language.German, "msg.settling", "Warten, bis das Gerät bereit ist")
	message.SetString(language.German, "msg.connection_lost", "Verbindung zum Gerät verloren")
	message.SetString(language.German, "msg.debug_line", "Gerätedebug")

	// --- Finnish (fi) ---
	message.SetString(language.Finnish, "msg.media_state", "Median tila muuttui")
	message.SetString(language.Finnish, "msg.media_error", "Sarjaporttivirhe")
	message.SetString(language.Finnish, "msg.media_closed", "Sarjaportti %s on suljettu")
	message.SetString(language.Finnish, "msg.receive_failed", "Vastaanotetun datan lukeminen epäonnistui")
	message.SetString(language.Finnish, "msg.settling", "Odotetaan laitteen valmistumista")
	message.SetString(language.Finnish, "msg.connection_lost", "Yhteys laitteeseen katkesi")
	message.SetString(language.Finnish, "msg.debug_line", "Laitteen debug")

	// --- Swedish (sv) ---
	message.SetString(language.Swedish, "msg.media_state", "Mediets tillstånd ändrades")
	message.SetString(language.Swedish, "msg.media_error", "Fel på serieporten")
	message.SetString(language.Swedish, "msg.media_closed", "Serieporten %s är stängd")
	message.SetString(language.Swedish, "msg.receive_failed", "Det gick inte att läsa mottagna data")
	message.SetString(language.Swedish, "msg.settling", "Väntar på att enheten ska bli redo")
	message.SetString(language.Swedish, "msg.connection_lost", "Anslutningen till enheten förlorades")
	message.SetString(language.Swedish, "msg.debug_line", "Enhetsfelsökning")

	// --- Spanish (es) ---
	message.SetString(language.Spanish, "msg.media_state", "El estado del medio cambió")
	message.SetString(language.Spanish, "msg.media_error", "Error del puerto serie")
	message.SetString(language.Spanish, "msg.media_closed", "El puerto serie %s está cerrado")
	message.SetString(language.Spanish, "msg.receive_failed", "No se pudieron leer los datos recibidos")
	message.SetString(language.Spanish, "msg.settling", "Esperando a que el dispositivo esté listo")
	message.SetString(language.Spanish, "msg.connection_lost", "Se perdió la conexión con el dispositivo")
	message.SetString(language.Spanish, "msg.debug_line", "Depuración del dispositivo")

	// --- Estonian (et) ---
	message.SetString(language.Estonian, "msg.media_state", "Meedia olek muutus")
	message.SetString(language.Estonian, "msg.media_error", "Jadapordi viga")
	message.SetString(language.Estonian, "msg.media_closed", "Jadaport %s on suletud")
	message.SetString(language.Estonian, "msg.receive_failed", "Vastuvõetud andmete lugemine ebaõnnestus")
	message.SetString(language.Estonian, "msg.settling", "Oodatakse seadme valmisolekut")
	message.SetString(language.Estonian, "msg.connection_lost", "Ühendus seadmega katkes")
	message.SetString(language.Estonian, "msg.debug_line", "Seadme silumine")
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (g *GXSerialMedia) Localize(language language.Tag) {
	g.p.Store(message.NewPrinter(language))
	g.serial.Localize(language)
}

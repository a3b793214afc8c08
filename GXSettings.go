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
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Gurux/gxcommon-go"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the settings file.
const (
	EnvConfig             = "GXSERIALRPC_CONFIG"
	EnvPort               = "GXSERIALRPC_PORT"
	EnvBaudRate           = "GXSERIALRPC_BAUD_RATE"
	EnvTrace              = "GXSERIALRPC_TRACE"
	EnvSettleDelay        = "GXSERIALRPC_SETTLE_DELAY"
	EnvRequestTimeout     = "GXSERIALRPC_REQUEST_TIMEOUT"
	EnvCallTimeout        = "GXSERIALRPC_CALL_TIMEOUT"
	EnvErrorQueueCapacity = "GXSERIALRPC_ERROR_QUEUE_CAPACITY"
)

// Default settings.
const (
	DefaultBaudRate       = 9600
	DefaultDataBits       = 8
	DefaultSettleDelay    = 3 * time.Second
	DefaultRequestTimeout = 7 * time.Second
)

// Settings holds the connection and client settings.
type Settings struct {
	// Port is the serial port name. Empty selects the first available port.
	Port     string `toml:"port" yaml:"port"`
	BaudRate int    `toml:"baud_rate" yaml:"baud_rate"`
	DataBits int    `toml:"data_bits" yaml:"data_bits"`
	// Parity name, for example None, Odd or Even.
	Parity string `toml:"parity" yaml:"parity"`
	// StopBits name. Empty is one stop bit.
	StopBits string `toml:"stop_bits" yaml:"stop_bits"`
	// Trace is the gxcommon trace level of the serial media. Empty disables tracing.
	Trace string `toml:"trace" yaml:"trace"`
	// SettleDelay is waited after the port is opened.
	SettleDelay time.Duration `toml:"settle_delay" yaml:"settle_delay"`
	// RequestTimeout evicts pending requests. 0 never evicts.
	RequestTimeout time.Duration `toml:"request_timeout" yaml:"request_timeout"`
	// CallTimeout bounds every SendRequest call. 0 waits for the request timeout.
	CallTimeout        time.Duration `toml:"call_timeout" yaml:"call_timeout"`
	ErrorQueueCapacity int           `toml:"error_queue_capacity" yaml:"error_queue_capacity"`
	LogLevel           string        `toml:"log_level" yaml:"log_level"`
	// Language of the localized messages, for example "fi".
	Language string `toml:"language" yaml:"language"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		BaudRate:           DefaultBaudRate,
		DataBits:           DefaultDataBits,
		Parity:             "None",
		SettleDelay:        DefaultSettleDelay,
		RequestTimeout:     DefaultRequestTimeout,
		ErrorQueueCapacity: DefaultErrorQueueCapacity,
		LogLevel:           "info",
	}
}

// LoadSettings loads the settings in layers: defaults, the settings file, the
// environment variables and validation.
// The file is path, or EnvConfig when path is empty. The extension selects
// the format: .toml, or .yaml and .yml.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := s.loadFile(path); err != nil {
			return Settings{}, fmt.Errorf("loading settings file %s: %w", path, err)
		}
	}
	if err := s.applyEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, s)
	default:
		err = fmt.Errorf("%w: unknown settings format %q", ErrInvalidSettings, filepath.Ext(path))
	}
	return err
}

func (s *Settings) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		s.Port = v
	}
	if v := os.Getenv(EnvTrace); v != "" {
		s.Trace = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvBaudRate); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, EnvBaudRate, err)
		}
		s.BaudRate = n
	}
	if v := os.Getenv(EnvErrorQueueCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, EnvErrorQueueCapacity, err)
		}
		s.ErrorQueueCapacity = n
	}
	durations := []struct {
		name  string
		value *time.Duration
	}{
		{EnvSettleDelay, &s.SettleDelay},
		{EnvRequestTimeout, &s.RequestTimeout},
		{EnvCallTimeout, &s.CallTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.name)
		if v == "" {
			continue
		}
		value, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSettings, d.name, err)
		}
		*d.value = value
	}
	return nil
}

// Validate checks the settings.
func (s Settings) Validate() error {
	if s.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidSettings, s.BaudRate)
	}
	if s.DataBits < 5 || s.DataBits > 8 {
		return fmt.Errorf("%w: data bits %d", ErrInvalidSettings, s.DataBits)
	}
	if s.SettleDelay < 0 || s.RequestTimeout < 0 || s.CallTimeout < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidSettings)
	}
	if s.ErrorQueueCapacity < 1 {
		return fmt.Errorf("%w: error queue capacity %d", ErrInvalidSettings, s.ErrorQueueCapacity)
	}
	if _, err := s.parity(); err != nil {
		return fmt.Errorf("%w: parity: %v", ErrInvalidSettings, err)
	}
	if _, err := s.stopBits(); err != nil {
		return fmt.Errorf("%w: stop bits: %v", ErrInvalidSettings, err)
	}
	if _, err := s.traceLevel(); err != nil {
		return fmt.Errorf("%w: trace: %v", ErrInvalidSettings, err)
	}
	if _, ok := ParseLogLevel(s.LogLevel); !ok {
		return fmt.Errorf("%w: log level %q", ErrInvalidSettings, s.LogLevel)
	}
	return nil
}

func (s Settings) parity() (gxcommon.Parity, error) {
	switch strings.ToLower(s.Parity) {
	case "", "none":
		return gxcommon.ParityNone, nil
	case "odd":
		return gxcommon.ParityOdd, nil
	case "even":
		return gxcommon.ParityEven, nil
	}
	return gxcommon.ParityParse(s.Parity)
}

func (s Settings) stopBits() (gxcommon.StopBits, error) {
	switch strings.ToLower(s.StopBits) {
	case "", "one", "1":
		return gxcommon.StopBitsOne, nil
	}
	return gxcommon.StopBitsParse(s.StopBits)
}

func (s Settings) traceLevel() (gxcommon.TraceLevel, error) {
	if s.Trace == "" {
		return 0, nil
	}
	return gxcommon.TraceLevelParse(s.Trace)
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// GetSettings returns the settings as XML elements. Default values are omitted.
func (s Settings) GetSettings() string {
	var b strings.Builder
	if s.Port != "" {
		fmt.Fprintf(&b, "<Port>%s</Port>\n", xmlEscape(s.Port))
	}
	if s.BaudRate != 0 && s.BaudRate != DefaultBaudRate {
		fmt.Fprintf(&b, "<Bps>%d</Bps>\n", s.BaudRate)
	}
	if s.DataBits != 0 && s.DataBits != DefaultDataBits {
		fmt.Fprintf(&b, "<ByteSize>%d</ByteSize>\n", s.DataBits)
	}
	if s.StopBits != "" {
		fmt.Fprintf(&b, "<StopBits>%s</StopBits>\n", xmlEscape(s.StopBits))
	}
	if s.Parity != "" && s.Parity != "None" {
		fmt.Fprintf(&b, "<Parity>%s</Parity>\n", xmlEscape(s.Parity))
	}
	if s.SettleDelay != DefaultSettleDelay {
		fmt.Fprintf(&b, "<SettleDelay>%s</SettleDelay>\n", s.SettleDelay)
	}
	if s.RequestTimeout != DefaultRequestTimeout {
		fmt.Fprintf(&b, "<RequestTimeout>%s</RequestTimeout>\n", s.RequestTimeout)
	}
	if s.CallTimeout != 0 {
		fmt.Fprintf(&b, "<CallTimeout>%s</CallTimeout>\n", s.CallTimeout)
	}
	if s.ErrorQueueCapacity != 0 && s.ErrorQueueCapacity != DefaultErrorQueueCapacity {
		fmt.Fprintf(&b, "<ErrorQueue>%d</ErrorQueue>\n", s.ErrorQueueCapacity)
	}
	return b.String()
}

// SetSettings reads settings from XML elements written by GetSettings.
// Missing elements are set to the defaults.
func (s *Settings) SetSettings(value string) error {
	d := DefaultSettings()
	s.Port = ""
	s.BaudRate = d.BaudRate
	s.DataBits = d.DataBits
	s.StopBits = ""
	s.Parity = d.Parity
	s.SettleDelay = d.SettleDelay
	s.RequestTimeout = d.RequestTimeout
	s.CallTimeout = 0
	s.ErrorQueueCapacity = d.ErrorQueueCapacity
	if strings.TrimSpace(value) == "" {
		return nil
	}
	dec := xml.NewDecoder(strings.NewReader("<root>" + value + "</root>"))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local == "root" {
			continue
		}
		var v string
		if err := dec.DecodeElement(&v, &se); err != nil {
			return err
		}
		switch se.Name.Local {
		case "Port":
			s.Port = v
		case "Bps":
			br, err := gxcommon.BaudRateParse(v)
			if err != nil {
				return err
			}
			s.BaudRate = int(br)
		case "ByteSize":
			s.DataBits, err = strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid ByteSize value: %v", err)
			}
		case "StopBits":
			s.StopBits = v
		case "Parity":
			s.Parity = v
		case "SettleDelay", "RequestTimeout", "CallTimeout":
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %v", se.Name.Local, err)
			}
			switch se.Name.Local {
			case "SettleDelay":
				s.SettleDelay = d
			case "RequestTimeout":
				s.RequestTimeout = d
			default:
				s.CallTimeout = d
			}
		case "ErrorQueue":
			s.ErrorQueueCapacity, err = strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid ErrorQueue value: %v", err)
			}
		}
	}
	return nil
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

package scale

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Protocol selects the wire format of a weight indicator.
type Protocol string

const (
	ProtocolGeneric  Protocol = "generic"
	ProtocolCardinal Protocol = "cardinal"
	ProtocolRiceLake Protocol = "rice_lake"
	ProtocolToledo   Protocol = "toledo"
	ProtocolCAS      Protocol = "cas"
)

// Status classifies a single reading.
type Status string

const (
	StatusStable   Status = "stable"
	StatusUnstable Status = "unstable"
	StatusError    Status = "error"
)

// DefaultUnit is reported when the indicator does not send a unit token.
const DefaultUnit = "kg"

type protocolPatterns struct {
	unstable *regexp.Regexp
	value    *regexp.Regexp
}

var (
	// Every indicator flags motion the same way.
	unstableRe = regexp.MustCompile(`(?i)(US|M|MOT)`)

	patterns = map[Protocol]protocolPatterns{
		ProtocolGeneric:  {unstableRe, regexp.MustCompile(`([+-]?\d+(?:\.\d+)?)`)},
		ProtocolCardinal: {unstableRe, regexp.MustCompile(`ST,GS,\s+([+-]?\d+(?:\.\d+)?)\s?(\w+)`)},
		ProtocolRiceLake: {unstableRe, regexp.MustCompile(`G\s+([+-]?\d+(?:\.\d+)?)\s?(\w+)`)},
		ProtocolToledo:   {unstableRe, regexp.MustCompile(`[SW][TN],\s*([+-]?\d+(?:\.\d+)?)\s?(\w+)`)},
		ProtocolCAS:      {unstableRe, regexp.MustCompile(`[WN][TG]\s*([+-]?\d+(?:\.\d+)?)\s?(\w+)`)},
	}
)

// Protocols returns the supported protocol names in display order.
func Protocols() []Protocol {
	return []Protocol{ProtocolGeneric, ProtocolCardinal, ProtocolRiceLake, ProtocolToledo, ProtocolCAS}
}

// ErrUnknownProtocol is returned for protocol names outside Protocols().
var ErrUnknownProtocol = errors.New("unknown scale protocol")

// ParseProtocol validates a protocol name coming from configuration or the API.
func ParseProtocol(name string) (Protocol, error) {
	p := Protocol(name)
	if _, ok := patterns[p]; !ok {
		return ProtocolGeneric, fmt.Errorf("%w %q", ErrUnknownProtocol, name)
	}
	return p, nil
}

// Reading is the structured result of parsing one line from the indicator.
type Reading struct {
	Weight     *decimal.Decimal `json:"weight"`
	Unit       string           `json:"unit"`
	IsStable   bool             `json:"isStable"`
	Status     Status           `json:"status"`
	RawLine    string           `json:"rawLine"`
	CapturedAt time.Time        `json:"capturedAt"`
}

// Parser turns indicator lines into readings and remembers the last stable weight.
// A Parser is not safe for concurrent use; give each connected device its own.
type Parser struct {
	protocol   Protocol
	patterns   protocolPatterns
	unit       string
	lastStable decimal.Decimal
	now        func() time.Time
}

// NewParser creates a parser for the given protocol. Unknown protocols use
// the generic patterns.
func NewParser(protocol Protocol) *Parser {
	pp, ok := patterns[protocol]
	if !ok {
		protocol = ProtocolGeneric
		pp = patterns[ProtocolGeneric]
	}
	return &Parser{
		protocol: protocol,
		patterns: pp,
		unit:     DefaultUnit,
		now:      time.Now,
	}
}

// Protocol returns the active protocol.
func (p *Parser) Protocol() Protocol {
	return p.protocol
}

// Parse never fails: a line without an extractable number is reported with
// StatusError and no weight, even when it carries a motion marker.
func (p *Parser) Parse(line string) Reading {
	reading := Reading{
		Unit:    p.unit,
		Status:  StatusError,
		RawLine: line,
	}

	unstable := p.patterns.unstable.MatchString(line)

	m := p.patterns.value.FindStringSubmatch(line)
	if m == nil {
		reading.CapturedAt = p.now()
		return reading
	}

	weight, err := decimal.NewFromString(m[1])
	if err != nil {
		reading.CapturedAt = p.now()
		return reading
	}
	reading.Weight = &weight

	if len(m) > 2 && m[2] != "" {
		reading.Unit = m[2]
	}

	if unstable {
		reading.Status = StatusUnstable
	} else {
		reading.Status = StatusStable
		reading.IsStable = true
		p.lastStable = weight
	}

	reading.CapturedAt = p.now()
	return reading
}

// LastStableWeight returns the weight of the most recent stable reading, or
// zero when none has been seen yet.
func (p *Parser) LastStableWeight() decimal.Decimal {
	return p.lastStable
}

// FormatWeight renders a weight for display, e.g. "1234.50 kg".
func FormatWeight(weight *decimal.Decimal, unit string, decimals int32) string {
	if unit == "" {
		unit = DefaultUnit
	}
	if weight == nil {
		return decimal.Zero.StringFixed(decimals) + " " + DefaultUnit
	}
	return weight.StringFixed(decimals) + " " + unit
}

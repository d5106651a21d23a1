// Package sentinel parses Sentinel-1 granule identifiers.
package sentinel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// timestampLayout is the acquisition timestamp format inside a granule ID.
const timestampLayout = "20060102T150405"

// minTokens is the minimum number of non-empty underscore tokens in a
// well-formed Sentinel-1 granule identifier.
const minTokens = 9

// ErrMalformedID indicates an identifier that does not follow the
// Sentinel-1 naming convention.
var ErrMalformedID = errors.New("malformed Sentinel-1 granule identifier")

// Granule is a parsed Sentinel-1 granule identifier.
//
// Example (SLC, note the double underscore after the product type):
//
//	S1A_IW_SLC__1SDV_20220310T121213_20220310T121240_042259_050962_1662
type Granule struct {
	ID            string
	Satellite     string // S1A, S1B, ...
	Mode          string // IW, EW, SM, WV
	ProductType   string // SLC, GRDH, GRDM, ...
	Polarization  string // 1SDV, 1SSH, ...
	StartTime     time.Time
	EndTime       time.Time
	AbsoluteOrbit string
	DatatakeID    string
	UniqueID      string
}

// Parse validates a Sentinel-1 granule identifier for well-formedness and
// extracts its token fields. The identifier is otherwise treated as an
// opaque key; nothing beyond the tokens is decoded.
func Parse(id string) (*Granule, error) {
	raw := strings.Split(id, "_")

	// SLC products carry a double underscore after the product type,
	// producing an empty token.
	tokens := make([]string, 0, len(raw))

	for _, tok := range raw {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}

	if len(tokens) < minTokens {
		return nil, fmt.Errorf("%w: %q has %d tokens, want at least %d", ErrMalformedID, id, len(tokens), minTokens)
	}

	startTime, err := time.Parse(timestampLayout, tokens[4])
	if err != nil {
		return nil, fmt.Errorf("%w: %q has unparseable start time %q", ErrMalformedID, id, tokens[4])
	}

	endTime, err := time.Parse(timestampLayout, tokens[5])
	if err != nil {
		return nil, fmt.Errorf("%w: %q has unparseable end time %q", ErrMalformedID, id, tokens[5])
	}

	return &Granule{
		ID:            id,
		Satellite:     tokens[0],
		Mode:          tokens[1],
		ProductType:   tokens[2],
		Polarization:  tokens[3],
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		AbsoluteOrbit: tokens[6],
		DatatakeID:    tokens[7],
		UniqueID:      tokens[8],
	}, nil
}

package protocol

import (
	"strconv"
	"strings"

	"github.com/roach88/emtrace/internal/event"
)

// maxTypeID is the largest id representable in the 1-byte frame header.
const maxTypeID = 255

// ParseDescriptors parses the descriptor handshake into a registry.
//
// Parsing stops at the first empty line (or the end of the blob). The number
// of data fields k of each line is inferred by splitting the fields after
// the id in half: types first, descriptions second.
func ParseDescriptors(blob []byte) (event.Registry, error) {
	reg := event.Registry{}

	for i, line := range strings.Split(string(blob), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		lineNo := i + 1

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, event.NewProtocolError(lineNo, "expected at least name and id", nil)
		}

		name := fields[0]
		if name == "" {
			return nil, event.NewProtocolError(lineNo, "empty event name", nil)
		}

		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, event.NewProtocolError(lineNo, "invalid id", err)
		}
		if id < 0 || id > maxTypeID {
			return nil, event.NewProtocolError(lineNo, "id out of range 0-255: "+fields[1], nil)
		}
		if existing, dup := reg[id]; dup {
			return nil, event.NewProtocolError(lineNo, "duplicate id, already used by "+existing.Name, nil)
		}

		rest := fields[2:]
		if len(rest)%2 != 0 {
			return nil, event.NewProtocolError(lineNo, "data fields cannot be split evenly into types and descriptions", nil)
		}
		k := len(rest) / 2

		types := make([]event.FieldType, k)
		for j, tag := range rest[:k] {
			ft, err := event.ParseFieldType(tag)
			if err != nil {
				return nil, event.NewProtocolError(lineNo, "field "+strconv.Itoa(j), err)
			}
			types[j] = ft
		}

		descs := make([]string, k)
		copy(descs, rest[k:])

		reg[id] = event.EventType{
			ID:               id,
			Name:             name,
			DataTypes:        types,
			DataDescriptions: descs,
		}
	}

	if len(reg) == 0 {
		return nil, event.NewProtocolError(1, "empty descriptor handshake", nil)
	}

	return reg, nil
}

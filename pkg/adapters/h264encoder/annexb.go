package h264encoder

import "bytes"

// NAL unit types used when splitting the byte stream.
const (
	nalTypeIDR = 5
	nalTypeAUD = 9
)

// auSplitter cuts an Annex B byte stream into access units. Every access unit
// must begin with an access unit delimiter, which x264 emits with aud=1.
type auSplitter struct {
	buf []byte
}

// Write appends stream data and returns the access units completed by it.
func (s *auSplitter) Write(p []byte) [][]byte {
	s.buf = append(s.buf, p...)

	var units [][]byte
	for {
		next := findAUD(s.buf, 1)
		if next < 0 {
			return units
		}
		unit := make([]byte, next)
		copy(unit, s.buf[:next])
		units = append(units, unit)
		s.buf = s.buf[next:]
	}
}

// Flush returns the trailing access unit, if any.
func (s *auSplitter) Flush() []byte {
	if len(s.buf) == 0 {
		return nil
	}
	unit := s.buf
	s.buf = nil
	return unit
}

// findAUD returns the offset of the start code of the first AUD at or after
// from, counting a leading zero of a 4-byte start code, or -1.
func findAUD(data []byte, from int) int {
	startCode := []byte{0, 0, 1}
	i := from
	for i+3 < len(data) {
		j := bytes.Index(data[i:], startCode)
		if j < 0 || i+j+3 >= len(data) {
			return -1
		}
		pos := i + j
		if data[pos+3]&0x1F == nalTypeAUD {
			if pos > 0 && data[pos-1] == 0 {
				pos--
			}
			if pos >= from {
				return pos
			}
		}
		i = pos + 3
	}
	return -1
}

// isIDR reports whether an access unit contains an IDR slice.
func isIDR(unit []byte) bool {
	for i := 0; i+3 < len(unit); i++ {
		if unit[i] == 0 && unit[i+1] == 0 && unit[i+2] == 1 {
			if unit[i+3]&0x1F == nalTypeIDR {
				return true
			}
			i += 2
		}
	}
	return false
}

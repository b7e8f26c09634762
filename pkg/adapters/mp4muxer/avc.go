package mp4muxer

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

const (
	nalTypeSPS = 7
	nalTypePPS = 8
	nalTypeAUD = 9
)

// extractSPSPPS extracts SPS and PPS NAL units from the first key chunk.
func extractSPSPPS(chunks []sample) (sps, pps []byte, err error) {
	for _, c := range chunks {
		if !c.key || len(c.data) == 0 {
			continue
		}

		for _, nalu := range parseAnnexB(c.data) {
			if len(nalu) == 0 {
				continue
			}
			switch nalu[0] & 0x1F {
			case nalTypeSPS:
				if sps == nil {
					sps = append([]byte(nil), nalu...)
				}
			case nalTypePPS:
				if pps == nil {
					pps = append([]byte(nil), nalu...)
				}
			}
		}

		if sps != nil && pps != nil {
			return sps, pps, nil
		}
	}

	if sps == nil {
		return nil, nil, fmt.Errorf("SPS not found")
	}
	return nil, nil, fmt.Errorf("PPS not found")
}

func createAVCConfigRecord(sps, pps []byte) (*mp4.AvcCBox, error) {
	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}
	return avcC, nil
}

// parseAnnexB splits an Annex B byte stream into NAL units.
func parseAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := 0
	i := 0

	for i < len(data) {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 {
			startCodeLen := 0
			if data[i+2] == 1 {
				startCodeLen = 3
			} else if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				startCodeLen = 4
			}

			if startCodeLen > 0 {
				if i > start {
					nalus = append(nalus, data[start:i])
				}
				i += startCodeLen
				start = i
				continue
			}
		}
		i++
	}

	if start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// toAVCC rewrites an access unit with 4-byte length prefixes. Parameter sets
// live in avcC and delimiters carry nothing, so both are dropped.
func toAVCC(data []byte) []byte {
	nalus := parseAnnexB(data)
	if len(nalus) == 0 {
		return data
	}

	size := 0
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}
	out := make([]byte, 0, size)

	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		switch nalu[0] & 0x1F {
		case nalTypeSPS, nalTypePPS, nalTypeAUD:
			continue
		}
		n := len(nalu)
		out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		out = append(out, nalu...)
	}
	return out
}

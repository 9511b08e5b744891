package rako

import (
	"fmt"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// Bridge frames are 'S', a length byte covering the payload, the payload,
// and a two's-complement checksum over the payload. The payload's first
// byte selects the message type; rooms travel as two big-endian bytes.
const (
	frameHeader = 0x53 // 'S'

	typeChannelStatus = 0x01 // room(2) channel(1) brightness(1)
	typeSceneStatus   = 0x02 // room(2) scene(1)

	cmdRoomScene         = 0x31 // room(2) zero(1) scene(1)
	cmdChannelBrightness = 0x32 // room(2) channel(1) brightness(1)

	maxScene = 4
)

func checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return -sum
}

func encodeFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, frameHeader, byte(len(payload)))
	frame = append(frame, payload...)
	return append(frame, checksum(payload))
}

// decodeFrame validates framing and returns the payload.
func decodeFrame(datagram []byte) ([]byte, error) {
	if len(datagram) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(datagram))
	}
	if datagram[0] != frameHeader {
		return nil, fmt.Errorf("%w: bad header 0x%02x", ErrBadFrame, datagram[0])
	}
	n := int(datagram[1])
	if len(datagram) != n+3 {
		return nil, fmt.Errorf("%w: length byte %d does not match %d bytes", ErrBadFrame, n, len(datagram))
	}
	payload := datagram[2 : 2+n]
	if got := datagram[n+2]; got != checksum(payload) {
		return nil, fmt.Errorf("%w: checksum 0x%02x", ErrBadFrame, got)
	}
	return payload, nil
}

func encodeRoomScene(room, scene int) []byte {
	return encodeFrame([]byte{cmdRoomScene, byte(room >> 8), byte(room), 0x00, byte(scene)})
}

func encodeChannelBrightness(room, channel int, brightness uint8) []byte {
	return encodeFrame([]byte{cmdChannelBrightness, byte(room >> 8), byte(room), byte(channel), brightness})
}

func encodeChannelStatus(room, channel int, brightness uint8) []byte {
	return encodeFrame([]byte{typeChannelStatus, byte(room >> 8), byte(room), byte(channel), brightness})
}

func encodeSceneStatus(room, scene int) []byte {
	return encodeFrame([]byte{typeSceneStatus, byte(room >> 8), byte(room), byte(scene)})
}

// decodeStatus parses a pushed datagram into a status message. Unknown
// payload types return (nil, nil): the listener skips them silently, they
// are bridge chatter we do not consume.
func decodeStatus(datagram []byte) (model.StatusMessage, error) {
	payload, err := decodeFrame(datagram)
	if err != nil {
		return nil, err
	}
	switch payload[0] {
	case typeChannelStatus:
		if len(payload) != 5 {
			return nil, fmt.Errorf("%w: channel status payload %d bytes", ErrBadFrame, len(payload))
		}
		return model.ChannelStatus{
			RoomID:     int(payload[1])<<8 | int(payload[2]),
			ChannelID:  int(payload[3]),
			Brightness: payload[4],
		}, nil
	case typeSceneStatus:
		if len(payload) != 4 {
			return nil, fmt.Errorf("%w: scene status payload %d bytes", ErrBadFrame, len(payload))
		}
		return model.SceneStatus{
			RoomID: int(payload[1])<<8 | int(payload[2]),
			Scene:  int(payload[3]),
		}, nil
	default:
		return nil, nil
	}
}

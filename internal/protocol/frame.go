package protocol

import (
	"bytes"
	"encoding/binary"
)

// frameMsgCode identifies a step-result frame on the wire.
const frameMsgCode uint32 = 1

// frameTerminator marks the end of a frame's vehicle list.
const frameTerminator uint32 = 0xFFFFFFFF

// VehicleFrame is one vehicle's state as written into a frame.
type VehicleFrame struct {
	UserID uint32
	Link   uint32
	Pos    float32
	Vel    float32
	Lat    float32
	DLat   float32
}

// EncodeFrame writes one binary frame: msg_code, step_index, each vehicle in
// ascending internal id order (the order the caller supplies), then the
// terminator.
func EncodeFrame(buf *bytes.Buffer, stepIndex uint32, vehicles []VehicleFrame) error {
	if err := binary.Write(buf, binary.BigEndian, frameMsgCode); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, stepIndex); err != nil {
		return err
	}
	for _, v := range vehicles {
		fields := []interface{}{v.UserID, v.Link, v.Pos, v.Vel, v.Lat, v.DLat}
		for _, f := range fields {
			if err := binary.Write(buf, binary.BigEndian, f); err != nil {
				return err
			}
		}
	}
	return binary.Write(buf, binary.BigEndian, frameTerminator)
}

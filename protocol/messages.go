package protocol

// Message IDs. Firmware-to-host records use the low range, host-to-firmware
// commands the 0x10 range.
const (
	MsgHello     = 0x01 // firmware -> host: version and timing profile
	MsgTelemetry = 0x02 // firmware -> host: periodic status record
	MsgPong      = 0x03 // firmware -> host: ping reply with echoed token
	MsgTrace     = 0x04 // firmware -> host: one chunk of the trace blob

	MsgSetOverride   = 0x10 // host -> firmware: force output percent
	MsgClearOverride = 0x11 // host -> firmware: return to the analog setpoint
	MsgPing          = 0x12 // host -> firmware: echo request
	MsgGetHello      = 0x13 // host -> firmware: re-send the hello record
	MsgGetTrace      = 0x14 // host -> firmware: request a trace blob chunk
)

// Hello identifies the firmware and its timing profile. Sent once at
// connect and again on MsgGetHello.
type Hello struct {
	Version         string
	HalfPeriodUS    uint32
	DetectorDelayUS uint32
	GatePulseUS     uint32
}

// EncodeHello writes the hello fields in wire order.
func EncodeHello(output OutputBuffer, h Hello) {
	EncodeVLQString(output, h.Version)
	EncodeVLQUint(output, h.HalfPeriodUS)
	EncodeVLQUint(output, h.DetectorDelayUS)
	EncodeVLQUint(output, h.GatePulseUS)
}

// DecodeHello reads a record written by EncodeHello.
func DecodeHello(data *[]byte) (Hello, error) {
	var h Hello
	var err error
	if h.Version, err = DecodeVLQString(data); err != nil {
		return h, err
	}
	if h.HalfPeriodUS, err = DecodeVLQUint(data); err != nil {
		return h, err
	}
	if h.DetectorDelayUS, err = DecodeVLQUint(data); err != nil {
		return h, err
	}
	if h.GatePulseUS, err = DecodeVLQUint(data); err != nil {
		return h, err
	}
	return h, nil
}

// Telemetry is one periodic status record from the firmware.
type Telemetry struct {
	UptimeUS      uint32
	ZeroCrossings uint32
	Matches       uint32
	Conversions   uint32
	Sample        uint16
	Percent       uint8
	DelayUS       uint32
	Prescaler     uint16
	Count         uint8
	State         uint8
	Override      bool
}

// EncodeTelemetry writes the record's fields in wire order.
func EncodeTelemetry(output OutputBuffer, rec Telemetry) {
	EncodeVLQUint(output, rec.UptimeUS)
	EncodeVLQUint(output, rec.ZeroCrossings)
	EncodeVLQUint(output, rec.Matches)
	EncodeVLQUint(output, rec.Conversions)
	EncodeVLQUint(output, uint32(rec.Sample))
	EncodeVLQUint(output, uint32(rec.Percent))
	EncodeVLQUint(output, rec.DelayUS)
	EncodeVLQUint(output, uint32(rec.Prescaler))
	EncodeVLQUint(output, uint32(rec.Count))
	EncodeVLQUint(output, uint32(rec.State))
	if rec.Override {
		EncodeVLQUint(output, 1)
	} else {
		EncodeVLQUint(output, 0)
	}
}

// DecodeTelemetry reads a record written by EncodeTelemetry.
func DecodeTelemetry(data *[]byte) (Telemetry, error) {
	var rec Telemetry
	var err error
	if rec.UptimeUS, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	if rec.ZeroCrossings, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	if rec.Matches, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	if rec.Conversions, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}

	var v uint32
	if v, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	rec.Sample = uint16(v)
	if v, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	rec.Percent = uint8(v)
	if rec.DelayUS, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	if v, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	rec.Prescaler = uint16(v)
	if v, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	rec.Count = uint8(v)
	if v, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	rec.State = uint8(v)
	if v, err = DecodeVLQUint(data); err != nil {
		return rec, err
	}
	rec.Override = v != 0
	return rec, nil
}

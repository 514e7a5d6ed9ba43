package events

const KindDeviceLost Kind = "device-lost"

// DeviceLost fires when an audio device fails. Microphone loss degrades
// voice input; speaker loss is fatal to the session.
type DeviceLost struct {
	Base
	Device string
	Err    error
}

func NewDeviceLostEvent(device string, err error) DeviceLost {
	return DeviceLost{Base: NewBase(KindDeviceLost), Device: device, Err: err}
}

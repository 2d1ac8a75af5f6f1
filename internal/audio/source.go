package audio

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoDevice      = errors.New("no usable input device")
	ErrStreamFailure = errors.New("audio stream failure")
)

// Source 音频输入源：Open 之后帧会异步写入 Frames()，Close 之后通道关闭
type Source interface {
	Open(ctx context.Context) error
	Frames() <-chan Frame
	Close() error
}

// DeviceError carries the device involved in an ErrNoDevice or
// ErrStreamFailure condition.
type DeviceError struct {
	Kind   error
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	msg := e.Kind.Error()
	if e.Device != "" {
		msg = fmt.Sprintf("%s (device %q)", msg, e.Device)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DeviceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NoDevice(device string, err error) error {
	return &DeviceError{Kind: ErrNoDevice, Device: device, Err: err}
}

func StreamFailure(device string, err error) error {
	return &DeviceError{Kind: ErrStreamFailure, Device: device, Err: err}
}

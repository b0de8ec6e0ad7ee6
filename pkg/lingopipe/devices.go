package lingopipe

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// AudioDevice represents an audio device
type AudioDevice struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefault         bool
	IsInput           bool
	IsOutput          bool
	HostAPI           string
}

// AudioDeviceManager enumerates and validates audio devices
type AudioDeviceManager struct {
	mu      sync.RWMutex
	devices []AudioDevice
	logger  *Logger
}

// NewAudioDeviceManager creates a new audio device manager
func NewAudioDeviceManager() *AudioDeviceManager {
	return &AudioDeviceManager{
		devices: make([]AudioDevice, 0),
		logger:  GetGlobalLogger().WithComponent("devices"),
	}
}

// Initialize initializes the audio device manager
func (adm *AudioDeviceManager) Initialize() error {
	adm.mu.Lock()
	defer adm.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return WrapError(err, ErrCodeDeviceUnavailable)
	}

	if err := adm.refreshDevices(); err != nil {
		return WrapError(err, ErrCodeDeviceUnavailable)
	}

	adm.logger.WithField("device_count", len(adm.devices)).Info("audio devices enumerated")
	return nil
}

// Cleanup cleans up the audio device manager
func (adm *AudioDeviceManager) Cleanup() {
	adm.mu.Lock()
	defer adm.mu.Unlock()

	if err := portaudio.Terminate(); err != nil {
		adm.logger.WithError(err).Error("failed to terminate PortAudio")
	}
}

// refreshDevices refreshes the device list
func (adm *AudioDeviceManager) refreshDevices() error {
	adm.devices = make([]AudioDevice, 0)

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		adm.logger.WithError(err).Warn("no default input device")
	}

	defaultOutput, err := portaudio.DefaultOutputDevice()
	if err != nil {
		adm.logger.WithError(err).Warn("no default output device")
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}

	for i, dev := range devices {
		hostAPIName := "Unknown"
		if dev.HostApi != nil {
			hostAPIName = dev.HostApi.Name
		}

		device := AudioDevice{
			ID:                i,
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			IsInput:           dev.MaxInputChannels > 0,
			IsOutput:          dev.MaxOutputChannels > 0,
			HostAPI:           hostAPIName,
		}

		if defaultInput != nil && dev == defaultInput {
			device.IsDefault = true
		}
		if defaultOutput != nil && dev == defaultOutput {
			device.IsDefault = true
		}

		adm.devices = append(adm.devices, device)
	}

	return nil
}

// GetDevices returns all available audio devices
func (adm *AudioDeviceManager) GetDevices() []AudioDevice {
	adm.mu.RLock()
	defer adm.mu.RUnlock()

	devices := make([]AudioDevice, len(adm.devices))
	copy(devices, adm.devices)
	return devices
}

// GetInputDevices returns devices capable of capture
func (adm *AudioDeviceManager) GetInputDevices() []AudioDevice {
	adm.mu.RLock()
	defer adm.mu.RUnlock()

	var inputs []AudioDevice
	for _, dev := range adm.devices {
		if dev.IsInput {
			inputs = append(inputs, dev)
		}
	}
	return inputs
}

// GetDeviceByID returns the device with the given id
func (adm *AudioDeviceManager) GetDeviceByID(id int) (*AudioDevice, error) {
	adm.mu.RLock()
	defer adm.mu.RUnlock()

	for _, dev := range adm.devices {
		if dev.ID == id {
			d := dev
			return &d, nil
		}
	}
	return nil, NewDeviceError("device not found").AddDetail("device_id", id)
}

// ValidateInputDevice checks that the device exists and supports the
// capture format.
func (adm *AudioDeviceManager) ValidateInputDevice(id, channels, sampleRate int) error {
	dev, err := adm.GetDeviceByID(id)
	if err != nil {
		return err
	}
	if !dev.IsInput {
		return NewDeviceError("device has no input channels").AddDetail("device_id", id)
	}
	if dev.MaxInputChannels < channels {
		return NewDeviceError("device does not support requested channel count").
			AddDetail("device_id", id).
			AddDetail("requested", channels).
			AddDetail("supported", dev.MaxInputChannels)
	}
	_ = sampleRate // portaudio resamples; rate mismatches are not fatal
	return nil
}

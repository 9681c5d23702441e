package der_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psu-powerlab/se2030/pkg/der"
	"github.com/psu-powerlab/se2030/pkg/elog"
	"github.com/psu-powerlab/se2030/pkg/events"
)

type nullLogger struct{ warnings int }

func (l *nullLogger) Debugf(string, ...interface{})       {}
func (l *nullLogger) Errorf(string, ...interface{})       {}
func (l *nullLogger) Infof(string, ...interface{})        {}
func (l *nullLogger) Printf(string, ...interface{})       {}
func (l *nullLogger) Warnf(string, ...interface{})        { l.warnings++ }
func (l *nullLogger) IsInfoEnabled() bool                 { return false }
func (l *nullLogger) IsDebugEnabled() bool                { return false }

var _ elog.Logger = (*nullLogger)(nil)

func TestRegistryGetDeviceCreatesOnFirstReference(t *testing.T) {
	bus := events.NewBus(4)
	r := der.NewRegistry(bus, &nullLogger{})

	d1 := r.GetDevice(42)
	require.NotNil(t, d1)
	assert.Equal(t, uint64(42), d1.SFDI)
	assert.NotNil(t, d1.Schedule)
	assert.Equal(t, 1, r.Len())

	d2 := r.GetDevice(42)
	assert.Same(t, d1, d2)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemovePublishesResourceRemove(t *testing.T) {
	bus := events.NewBus(4)
	r := der.NewRegistry(bus, &nullLogger{})

	dev := r.GetDevice(7)
	r.Remove(7)

	assert.Equal(t, 0, r.Len())
	evt := <-bus.Subscribe()
	require.Equal(t, events.ResourceRemove, evt.Kind)
	assert.Same(t, dev, evt.Subject)
}

func TestRegistryRemoveMissingLogsLookupMiss(t *testing.T) {
	bus := events.NewBus(4)
	log := &nullLogger{}
	r := der.NewRegistry(bus, log)

	r.Remove(999)

	assert.Equal(t, 1, log.warnings)
}

type fakeCertLoader struct {
	sfdi uint64
	lfdi [20]byte
	err  error
}

func (f *fakeCertLoader) LoadCert(path string) (uint64, [20]byte, error) {
	return f.sfdi, f.lfdi, f.err
}

func TestRegistryDeviceCertRegistersDevice(t *testing.T) {
	bus := events.NewBus(4)
	r := der.NewRegistry(bus, &nullLogger{})

	loader := &fakeCertLoader{sfdi: 55, lfdi: [20]byte{1, 2, 3}}
	dev, err := r.DeviceCert(loader, "/certs/dev55.pem")
	require.NoError(t, err)
	assert.Equal(t, uint64(55), dev.SFDI)
	assert.Equal(t, [20]byte{1, 2, 3}, dev.LFDI)
}

func TestRegistryDeviceCertPropagatesLoaderError(t *testing.T) {
	bus := events.NewBus(4)
	r := der.NewRegistry(bus, &nullLogger{})

	wantErr := errors.New("bad cert")
	loader := &fakeCertLoader{err: wantErr}
	_, err := r.DeviceCert(loader, "/certs/broken.pem")
	require.Error(t, err)
	assert.True(t, errors.Is(err, wantErr))
}

func TestRegistryDeviceCertsWalksDirectory(t *testing.T) {
	bus := events.NewBus(4)
	r := der.NewRegistry(bus, &nullLogger{})

	paths := []string{"/certs/a.pem", "/certs/b.pem"}
	loader := &fakeCertLoader{sfdi: 1}
	var seen []string
	walk := func(dir string, fn func(path string) error) error {
		assert.Equal(t, "/certs", dir)
		for _, p := range paths {
			seen = append(seen, p)
			if err := fn(p); err != nil {
				return err
			}
		}
		return nil
	}

	err := r.DeviceCerts(loader, "/certs", walk)
	require.NoError(t, err)
	assert.Equal(t, paths, seen)
}

func TestRegistryDeviceSettingsAttachesSettings(t *testing.T) {
	bus := events.NewBus(4)
	r := der.NewRegistry(bus, &nullLogger{})

	settings := der.Settings{Dir: "/etc/der", Values: map[string]string{"schemaId": "S1"}}
	dev := r.DeviceSettings(88, settings)
	assert.Equal(t, settings, dev.Settings)
}

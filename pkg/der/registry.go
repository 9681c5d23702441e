package der

import (
	"fmt"

	"github.com/psu-powerlab/se2030/pkg/elog"
	"github.com/psu-powerlab/se2030/pkg/events"
	"github.com/psu-powerlab/se2030/pkg/hashtable"
)

// DerDevice is a registry entry keyed by SFDI, owning its Schedule and
// defaults list per spec.md §3: created lazily on first reference, and
// kept until Registry.Remove drops it.
type DerDevice struct {
	SFDI                uint64
	LFDI                [20]byte
	MeteringRate        int64
	MirrorUsagePointURI string
	Readings            []MeterReading
	Programs            []*Program
	Defaults            *DefaultControl
	ActiveMask          uint64
	Schedule            *Schedule
	Settings            Settings
}

// CertLoader is the spec.md §6 certificate-loading collaborator: out of
// scope to implement (no TLS/X.509 parsing here), but the interface the
// registry's wiring consumes.
type CertLoader interface {
	LoadCert(path string) (sfdi uint64, lfdi [20]byte, err error)
}

// DirWalker is the spec.md §6 `process_dir(path, ctx, fn)` collaborator
// for bulk certificate/settings directory loads.
type DirWalker func(dir string, fn func(path string) error) error

// Registry is the process-wide device registry, the global_hash
// instance spec.md §9's design notes call out to specify as "a
// process-wide state object with explicit init/teardown" rather than a
// module-level mutable.
type Registry struct {
	table *hashtable.Table[uint64, *DerDevice]
	bus   *events.Bus
	log   elog.Logger
}

// NewRegistry creates an empty Registry publishing RESOURCE_REMOVE
// through bus, and logging lookup misses through log. The registry
// never reads from bus.
func NewRegistry(bus *events.Bus, log elog.Logger) *Registry {
	return &Registry{
		table: hashtable.New[uint64, *DerDevice](64, func(d *DerDevice) uint64 { return d.SFDI }),
		bus:   bus,
		log:   log,
	}
}

// GetDevice returns the device registered under sfdi, creating and
// registering one on first reference (spec.md §6 `get_device`).
func (r *Registry) GetDevice(sfdi uint64) *DerDevice {
	if d, ok := r.table.Get(sfdi); ok {
		return d
	}
	d := &DerDevice{SFDI: sfdi}
	d.Schedule = newSchedule(d)
	r.table.Put(d)
	return d
}

// Remove unregisters sfdi's device and publishes RESOURCE_REMOVE,
// logging a LookupMiss if it was never registered.
func (r *Registry) Remove(sfdi uint64) {
	d, ok := r.table.Delete(sfdi)
	if !ok {
		r.log.Warnf("der: remove: %v: %v", sfdi, ErrLookupMiss)
		return
	}
	r.bus.Publish(events.Event{Kind: events.ResourceRemove, Subject: d})
}

// DeviceCert loads a single certificate through loader and registers
// (or updates) the device it names, per spec.md §4 supplemented
// feature 1.
func (r *Registry) DeviceCert(loader CertLoader, path string) (*DerDevice, error) {
	sfdi, lfdi, err := loader.LoadCert(path)
	if err != nil {
		return nil, fmt.Errorf("der: load cert %s: %w", path, err)
	}
	dev := r.GetDevice(sfdi)
	dev.LFDI = lfdi
	return dev, nil
}

// DeviceCerts bulk-loads every certificate in dir via walk, the
// `process_dir` callback contract spec.md §6 describes.
func (r *Registry) DeviceCerts(loader CertLoader, dir string, walk DirWalker) error {
	return walk(dir, func(path string) error {
		_, err := r.DeviceCert(loader, path)
		return err
	})
}

// DeviceSettings attaches settings to sfdi's device, creating it if
// this is the first reference, per spec.md §4 supplemented feature 2.
func (r *Registry) DeviceSettings(sfdi uint64, settings Settings) *DerDevice {
	dev := r.GetDevice(sfdi)
	dev.Settings = settings
	return dev
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return r.table.Len()
}

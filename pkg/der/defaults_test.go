package der_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psu-powerlab/se2030/internal/testschema"
	"github.com/psu-powerlab/se2030/pkg/der"
	"github.com/psu-powerlab/se2030/pkg/events"
	"github.com/psu-powerlab/se2030/pkg/object"
)

func buildProgramWithDefault(pool *object.Pool, primacy uint8, defaultBits []int, mrids ...string) *object.Object {
	prog := pool.Allocate(testschema.TDERProgram)
	prog.Scalars["primacy"] = primacy
	prog.Scalars["__testKey"] = "P1"
	for _, m := range mrids {
		prog.Children["DERControl"] = append(prog.Children["DERControl"], buildControl(pool, m))
	}
	def := pool.Allocate(testschema.TDefaultDERControl)
	base := pool.Allocate(testschema.TDERControlBase)
	for _, bit := range defaultBits {
		base.SetTrue(bit)
	}
	def.Children["DERControlBase"] = []*object.Object{base}
	prog.Children["DefaultDERControl"] = []*object.Object{def}
	return prog
}

// TestDefaultFallThrough exercises spec.md §8's "Default fall-through"
// scenario: a program's DefaultDERControl supplies opModFixedW while
// nothing active asserts it, then an active block claims that bit and
// the default should stop supplying it.
func TestDefaultFallThrough(t *testing.T) {
	s := testschema.New()
	pool := object.NewPool(s)
	bus := events.NewBus(32)
	sched := newScheduler(bus, nil)

	dev := &der.DerDevice{SFDI: 3}
	dev.Schedule = newScheduleForTest(dev)

	prog := buildProgramWithDefault(pool, 0, []int{testschema.BitOpModFixedW})
	edev := buildEndDevice(pool, prog)
	sched.ScheduleDER(dev, edev, time.Unix(0, 0))

	require.NotNil(t, dev.Defaults)
	assert.Equal(t, uint64(1)<<testschema.BitOpModFixedW, dev.Defaults.Mask)
	assert.True(t, drainForKind(bus, events.DefaultStart))

	prog2 := buildProgramWithDefault(pool, 0, []int{testschema.BitOpModFixedW}, "withFixedW")
	// give the new control a DER mask that asserts opModFixedW by
	// setting the bit on its existing DERControlBase.
	ctl := prog2.Children["DERControl"][0]
	base := ctl.Children["DERControlBase"][0]
	base.SetTrue(testschema.BitOpModFixedW)

	edev2 := buildEndDevice(pool, prog2)
	sched.ScheduleDER(dev, edev2, time.Unix(60, 0))

	var eb *der.EventBlock
	for _, b := range dev.Schedule.Scheduled {
		if b.EventID == "withFixedW" {
			eb = b
		}
	}
	require.NotNil(t, eb)
	dev.Schedule.Activate(eb, bus)

	assert.Equal(t, uint64(1)<<testschema.BitOpModFixedW, dev.ActiveMask&(1<<testschema.BitOpModFixedW))
	assert.Nil(t, dev.Defaults)
	assert.True(t, drainForKind(bus, events.DefaultEnd))

	// invariant: active and default-supplied bits never overlap.
	var suppliedByDefaults uint64
	for d := dev.Defaults; d != nil; d = d.Next {
		suppliedByDefaults |= d.Mask
	}
	assert.Zero(t, dev.ActiveMask&suppliedByDefaults)
}

func drainForKind(bus *events.Bus, kind events.Kind) bool {
	for {
		select {
		case evt := <-bus.Subscribe():
			if evt.Kind == kind {
				return true
			}
		default:
			return false
		}
	}
}

func TestCopyDERBaseOverlaysOnlyMaskedFieldsAndRestoresSrcFlags(t *testing.T) {
	s := testschema.New()
	pool := object.NewPool(s)

	src := pool.Allocate(testschema.TDERControlBase)
	src.SetTrue(testschema.BitOpModConnect)
	src.SetTrue(testschema.BitOpModEnergize)
	src.Scalars["opModFixedW"] = int64(42)
	src.Scalars["rampTms"] = uint64(100)
	srcFlagsBefore := src.Flags

	dest := pool.Allocate(testschema.TDERControlBase)
	dest.Scalars["opModFixedW"] = int64(7)

	mask := uint64(1)<<testschema.BitOpModConnect | uint64(1)<<testschema.BitOpModFixedW

	der.CopyDERBase(s, testschema.TDERControlBase, dest, src, mask)

	assert.True(t, dest.True(testschema.BitOpModConnect))
	assert.False(t, dest.True(testschema.BitOpModEnergize))
	assert.Equal(t, int64(42), dest.Scalars["opModFixedW"])
	_, hasRampTms := dest.Scalars["rampTms"]
	assert.False(t, hasRampTms)
	assert.Equal(t, srcFlagsBefore, src.Flags)
	assert.Equal(t, mask, dest.Flags&mask)
}

func TestMaskReadsPresentSimpleFields(t *testing.T) {
	s := testschema.New()
	pool := object.NewPool(s)

	base := pool.Allocate(testschema.TDERControlBase)
	base.SetTrue(testschema.BitOpModConnect)
	base.Scalars["rampTms"] = uint64(5)

	mask := der.Mask(s, testschema.TDERControlBase, base)
	assert.Equal(t, uint64(1)<<testschema.BitOpModConnect|uint64(1)<<testschema.BitRampTms, mask)

	assert.Zero(t, der.Mask(s, testschema.TDERControlBase, nil))
}

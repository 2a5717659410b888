package rhkstm

import (
	"fmt"

	"github.com/zrbyte/rhkstm/sm4"
)

// Unit conversion factors from the SI units the instrument records.
const (
	MetersToNanometers   = 1e9
	AmperesToPicoamperes = 1e12
)

// Rescale converts a freshly reconstructed SpecMap in place from meters and
// amperes to nanometers and picoamperes, and labels the units. It must be
// applied once.
func Rescale(sm *SpecMap) error {
	for _, name := range []string{DimSpecPosX, DimSpecPosY} {
		c, ok := sm.Coords[name]
		if !ok {
			return fmt.Errorf("specmap has no coordinate '%s'", name)
		}
		for i := range c.Values {
			c.Values[i] *= MetersToNanometers
		}
		c.Attrs["units"] = "nm"
		c.Attrs["long units"] = "nanometer"
	}
	for _, name := range []string{VarLIA, VarCurrent} {
		v, err := sm.Var(name)
		if err != nil {
			return err
		}
		v.Data.Scale(AmperesToPicoamperes)
		v.Attrs["units"] = "pA"
		v.Attrs["long units"] = "picoampere"
	}
	return nil
}

// Annotate copies instrument settings from the raw channels of f onto sm:
// the bias and setpoint current of each channel, the per-point timing, and
// the measurement date and time from the current channel.
func Annotate(sm *SpecMap, f *sm4.File) error {
	sources := []struct {
		variable, channel string
	}{
		{VarLIA, ChannelLIA},
		{VarCurrent, ChannelCurrent},
	}
	for _, src := range sources {
		v, err := sm.Var(src.variable)
		if err != nil {
			return err
		}
		ch, ok := f.Channel(src.channel)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingChannel, src.channel)
		}
		bias, err := ch.Attrs.Float64(sm4.KeyBias)
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Name, err)
		}
		setpoint, err := ch.Attrs.Float64(sm4.KeyCurrent)
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Name, err)
		}
		tpp, err := ch.Attrs.Float64(sm4.KeyTimePerPoint)
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Name, err)
		}
		v.Attrs["bias"] = bias
		v.Attrs["bias units"] = "V"
		v.Attrs["setpoint"] = setpoint * AmperesToPicoamperes
		v.Attrs["setpoint units"] = "pA"
		v.Attrs["time_per_point"] = tpp
	}

	if c, ok := sm.Coords[DimBias]; ok {
		c.Attrs["units"] = "V"
		c.Attrs["long units"] = "volt"
	}

	current, _ := f.Channel(ChannelCurrent)
	date, err := current.Attrs.String(sm4.KeyDate)
	if err != nil {
		return fmt.Errorf("channel %s: %w", current.Name, err)
	}
	clock, err := current.Attrs.String(sm4.KeyTime)
	if err != nil {
		return fmt.Errorf("channel %s: %w", current.Name, err)
	}
	sm.Attrs["measurement date"] = date
	sm.Attrs["measurement time"] = clock
	return nil
}

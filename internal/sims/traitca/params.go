package traitca

import (
	"strconv"
	"strings"

	"trait-ca/internal/core"
	"trait-ca/internal/rules"
)

// Parameters implements core.ParameterProvider.
func (a *Automaton) Parameters() core.ParameterSnapshot {
	c := a.cfg
	traits := make([]core.Parameter, 0, c.Channels)
	for ch, name := range a.names {
		rule := rules.Unknown
		if ch < len(c.Rules) {
			rule = c.Rules[ch]
		}
		if !c.Active(ch) {
			rule += " (off)"
		}
		traits = append(traits, core.Parameter{
			Key:   "rule_" + strconv.Itoa(ch),
			Label: name,
			Type:  core.ParamTypeString,
			Value: rule,
		})
	}
	groups := []core.ParameterGroup{
		{
			Name: "Grid",
			Params: []core.Parameter{
				intParam("w", "Width", c.Width),
				intParam("h", "Height", c.Height),
				int64Param("seed", "Seed", a.eng.Seed()),
				floatParam("density", "Density", a.eng.Density()),
				intParam("traits", "Traits", c.Channels),
				stringParam("init", "Init", c.Init),
			},
		},
		{
			Name:    "Traits",
			Params:  traits,
			Summary: "active " + maskString(c.ActiveMask, c.Channels),
		},
		{
			Name: "Movement",
			Params: []core.Parameter{
				stringParam("movement", "Movement", c.Movement),
				intParam("workers", "Workers", a.eng.Workers()),
			},
		},
		{
			Name: "Display",
			Params: []core.Parameter{
				intParam("selected", "Selected trait", a.selected),
				stringParam("scheme", "Color scheme", a.scheme.Name),
				floatParam("base_color", "Base color", c.BaseColorNotEmpty),
				floatParam("steps_per_second", "Steps per second", c.StepsPerSecond),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the knobs the HUD can turn.
func (a *Automaton) ParameterControls() []core.ParameterControl {
	b := a.cfg.Bounds
	return []core.ParameterControl{
		{Key: "selected", Label: "Trait", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: float64(a.cfg.Channels - 1), HasMin: true, HasMax: true},
		{Key: "density", Label: "Density", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "base_color", Label: "Base color", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: "steps_per_second", Label: "Steps/s", Type: core.ParamTypeFloat, Step: 10, Min: b.StepsPerSecondMin, Max: b.StepsPerSecondMax, HasMin: true, HasMax: true},
		{Key: "w", Label: "Width", Type: core.ParamTypeInt, Step: 10, Min: float64(b.WidthMin), Max: float64(b.WidthMax), HasMin: true, HasMax: true},
		{Key: "h", Label: "Height", Type: core.ParamTypeInt, Step: 10, Min: float64(b.HeightMin), Max: float64(b.HeightMax), HasMin: true, HasMax: true},
	}
}

// SetIntParameter implements core.IntParameterSetter.
func (a *Automaton) SetIntParameter(key string, value int) bool {
	switch key {
	case "selected":
		return a.SetSelected(value)
	case "w":
		return a.Resize(value, a.cfg.Height) == nil
	case "h":
		return a.Resize(a.cfg.Width, value) == nil
	case "seed":
		a.Reset(int64(value))
		return true
	}
	return false
}

// SetFloatParameter implements core.FloatParameterSetter. Density changes
// repopulate the grid.
func (a *Automaton) SetFloatParameter(key string, value float64) bool {
	switch key {
	case "density":
		if err := a.eng.SetDensity(value); err != nil {
			return false
		}
		a.cfg.Density = value
		a.Reset(a.eng.Seed())
		return true
	case "base_color":
		return a.SetBaseColor(value) == nil
	case "steps_per_second":
		b := a.cfg.Bounds
		if value < b.StepsPerSecondMin || value > b.StepsPerSecondMax {
			return false
		}
		a.cfg.StepsPerSecond = value
		return true
	}
	return false
}

func maskString(mask []uint8, n int) string {
	var sb strings.Builder
	for ch := 0; ch < n; ch++ {
		if ch < len(mask) && mask[ch] != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.Itoa(value)}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.FormatInt(value, 10)}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeFloat, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}

func stringParam(key, label, value string) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeString, Value: value}
}

// Package scenario loads scripted interaction sessions from TOML and replays
// them against one or more grid viewports. It backs the gridview command.
//
// A scenario names the grid, the canvas and a list of steps:
//
//	columns = 64
//	rows = 64
//	canvas = [800, 600]
//	header = [48, 24]
//	source = "life"
//
//	[[step]]
//	action = "down"
//	x = 400
//	y = 300
//
//	[[step]]
//	action = "tick"
//	count = 30
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Errors returned by Load and Validate.
var (
	ErrUnknownKey    = errors.New("scenario: unknown key")
	ErrInvalid       = errors.New("scenario: invalid value")
	ErrUnknownAction = errors.New("scenario: unknown action")
)

// Action names a step.
type Action string

// Step actions.
const (
	ActionDown     Action = "down"
	ActionMove     Action = "move"
	ActionUp       Action = "up"
	ActionLeave    Action = "leave"
	ActionWheel    Action = "wheel"
	ActionZoom     Action = "zoom"
	ActionSelect   Action = "select"
	ActionClear    Action = "clear"
	ActionTick     Action = "tick"
	ActionStep     Action = "step"
	ActionResize   Action = "resize"
	ActionViewport Action = "viewport"
)

var actions = map[Action]bool{
	ActionDown: true, ActionMove: true, ActionUp: true, ActionLeave: true,
	ActionWheel: true, ActionZoom: true, ActionSelect: true, ActionClear: true,
	ActionTick: true, ActionStep: true, ActionResize: true, ActionViewport: true,
}

// Source kinds understood by the loader.
const (
	SourceStatic   = "static"
	SourceGradient = "gradient"
	SourceRandom   = "random"
	SourceLife     = "life"
)

// Scenario is a decoded scenario file.
type Scenario struct {
	Columns     int        `toml:"columns"`
	Rows        int        `toml:"rows"`
	Canvas      [2]int     `toml:"canvas"`
	Header      [2]float64 `toml:"header"`
	ScrollBar   [2]float64 `toml:"scroll_bar"`
	SampleCount uint32     `toml:"sample_count"`
	Viewports   int        `toml:"viewports"`
	Overscroll  *bool      `toml:"overscroll"`
	ZoomStep    float64    `toml:"zoom_step"`

	// Source selects the cell values: static, gradient, random or life.
	Source  string  `toml:"source"`
	Seed    uint64  `toml:"seed"`
	Density float64 `toml:"density"`

	Steps []Step `toml:"step"`
}

// Step is one scripted input.
type Step struct {
	Action   Action `toml:"action"`
	Viewport int    `toml:"viewport"`

	// Pointer position in client pixels and milliseconds since the previous
	// pointer event (default 16).
	X  float64 `toml:"x"`
	Y  float64 `toml:"y"`
	DT int     `toml:"dt"`

	Delta float64 `toml:"delta"` // wheel
	Scale float64 `toml:"scale"` // zoom

	Column int  `toml:"column"`
	Row    int  `toml:"row"`
	Shift  bool `toml:"shift"`
	Ctrl   bool `toml:"ctrl"`

	// Count repeats tick and step actions.
	Count int `toml:"count"`

	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Rect is left, top, right, bottom in cells for the viewport action.
	Rect [4]float64 `toml:"rect"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	var sc Scenario
	md, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return nil, fmt.Errorf("scenario: decode %s: %w", path, err)
	}
	return finish(&sc, md)
}

// Parse decodes and validates scenario text.
func Parse(data string) (*Scenario, error) {
	var sc Scenario
	md, err := toml.Decode(data, &sc)
	if err != nil {
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	return finish(&sc, md)
}

func finish(sc *Scenario, md toml.MetaData) (*Scenario, error) {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(names, ", "))
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Scenario) applyDefaults() {
	if sc.Canvas == [2]int{} {
		sc.Canvas = [2]int{800, 600}
	}
	if sc.ScrollBar == [2]float64{} {
		sc.ScrollBar = [2]float64{6, 2}
	}
	if sc.SampleCount == 0 {
		sc.SampleCount = 4
	}
	if sc.Viewports == 0 {
		sc.Viewports = 1
	}
	if sc.Source == "" {
		sc.Source = SourceStatic
	}
	if sc.Density == 0 {
		sc.Density = 0.3
	}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		if st.DT == 0 {
			st.DT = 16
		}
		if st.Count == 0 {
			st.Count = 1
		}
	}
}

// Validate checks sizes and steps.
func (sc *Scenario) Validate() error {
	switch {
	case sc.Columns <= 0 || sc.Rows <= 0:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalid, sc.Columns, sc.Rows)
	case sc.Canvas[0] <= 0 || sc.Canvas[1] <= 0:
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalid, sc.Canvas[0], sc.Canvas[1])
	case sc.Viewports < 1:
		return fmt.Errorf("%w: viewports %d", ErrInvalid, sc.Viewports)
	case sc.Density < 0 || sc.Density > 1:
		return fmt.Errorf("%w: density %g", ErrInvalid, sc.Density)
	}
	switch sc.Source {
	case SourceStatic, SourceGradient, SourceRandom, SourceLife:
	default:
		return fmt.Errorf("%w: source %q", ErrInvalid, sc.Source)
	}
	for i, st := range sc.Steps {
		if !actions[st.Action] {
			return fmt.Errorf("%w: step %d: %q", ErrUnknownAction, i, st.Action)
		}
		if st.Viewport < 0 || st.Viewport >= sc.Viewports {
			return fmt.Errorf("%w: step %d: viewport %d", ErrInvalid, i, st.Viewport)
		}
		if st.Count < 0 {
			return fmt.Errorf("%w: step %d: count %d", ErrInvalid, i, st.Count)
		}
		if st.Action == ActionZoom && st.Scale <= 0 {
			return fmt.Errorf("%w: step %d: zoom scale %g", ErrInvalid, i, st.Scale)
		}
	}
	return nil
}

package pacing

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/features"
	"github.com/san-kum/pacesim/internal/metrics"
)

// Driver paces one cell model under a Protocol.
type Driver struct {
	model     dynamo.CellModel
	proto     Protocol
	log       *slog.Logger
	observers []Observer
	extractor features.Extractor
	reduce    metrics.Reducer
}

type Option func(*Driver)

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o) }
}

func WithExtractor(e features.Extractor) Option {
	return func(d *Driver) { d.extractor = e }
}

// WithReducer sets how pace comparisons collapse their distance series. The
// default is metrics.Max.
func WithReducer(r metrics.Reducer) Option {
	return func(d *Driver) {
		if r != nil {
			d.reduce = r
		}
	}
}

// NewDriver validates proto and installs its stimulus on model.
func NewDriver(model dynamo.CellModel, proto Protocol, opts ...Option) (*Driver, error) {
	if model == nil {
		return nil, errors.New("pacing: nil model")
	}
	if err := proto.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		model:     model,
		proto:     proto,
		log:       slog.Default(),
		extractor: features.NewExtractor(),
		reduce:    metrics.Max,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("model", model.Name())

	model.SetStimulus(proto.Stimulus())
	return d, nil
}

func (d *Driver) Model() dynamo.CellModel { return d.model }
func (d *Driver) Protocol() Protocol      { return d.proto }

// SetProtocol replaces the protocol and reinstalls the stimulus.
func (d *Driver) SetProtocol(proto Protocol) error {
	if err := proto.Validate(); err != nil {
		return err
	}
	d.proto = proto
	d.model.SetStimulus(proto.Stimulus())
	return nil
}

// advance runs one pace in place.
func (d *Driver) advance(pace int) error {
	for _, ph := range d.proto.phases() {
		if err := d.model.AdvanceTo(ph.start, ph.end); err != nil {
			return fmt.Errorf("pace %d: %w", pace, err)
		}
	}
	return nil
}

// GetPace sets the model to initial and returns the sampled trajectory of one
// pace. The model is left at the end of the pace.
func (d *Driver) GetPace(initial dynamo.State) (dynamo.Trajectory, error) {
	var tr dynamo.Trajectory
	if err := d.model.SetState(initial); err != nil {
		return tr, fmt.Errorf("get pace: %w", err)
	}
	for _, ph := range d.proto.phases() {
		part, err := d.model.ComputeTrajectory(ph.start, ph.end, d.proto.SamplingStep)
		if err != nil {
			return tr, fmt.Errorf("get pace: %w", err)
		}
		tr.Append(part)
	}
	return tr, nil
}

// Pace2Norm paces from a and from b and returns the largest two-norm between
// time-aligned samples of the two trajectories, or their reduction under
// WithReducer. The model state is restored afterwards.
func (d *Driver) Pace2Norm(a, b dynamo.State) (float64, error) {
	return d.comparePaces("pace two-norm", a, b, metrics.TwoNormTrace)
}

// PaceMRMS is Pace2Norm with MRMS as the pointwise distance; a's trajectory
// is the reference.
func (d *Driver) PaceMRMS(a, b dynamo.State) (float64, error) {
	return d.comparePaces("pace mrms", a, b, metrics.MRMSTrace)
}

func (d *Driver) comparePaces(op string, a, b dynamo.State, dist func(t1, t2 [][]float64) ([]float64, error)) (result float64, err error) {
	saved := d.model.State()
	defer func() {
		if rerr := d.model.SetState(saved); rerr != nil && err == nil {
			err = fmt.Errorf("%s: restore state: %w", op, rerr)
		}
	}()

	trA, err := d.GetPace(a)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	trB, err := d.GetPace(b)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	series, err := dist(trA.Rows(), trB.Rows())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return d.reduce(series)
}

// CalculateAPD paces once from the model's current state and measures the
// action potential in that pace.
func (d *Driver) CalculateAPD(percent float64) (*features.Properties, error) {
	tr, err := d.GetPace(d.model.State())
	if err != nil {
		return nil, err
	}
	return d.extract(tr, percent)
}

func (d *Driver) extract(tr dynamo.Trajectory, percent float64) (*features.Properties, error) {
	idx, err := d.model.StateIndex(dynamo.VoltageName)
	if err != nil {
		return nil, fmt.Errorf("apd: %w", err)
	}
	v, err := tr.Variable(idx)
	if err != nil {
		return nil, fmt.Errorf("apd: %w", err)
	}
	props, err := d.extractor.Extract(v, tr.Times, percent)
	if err != nil {
		return nil, fmt.Errorf("apd: %w", err)
	}
	return props, nil
}

func (d *Driver) notify(ev PaceEvent) {
	ev.Model = d.model.Name()
	for _, o := range d.observers {
		o.OnPace(ev)
	}
}

func newEvent(loop Loop, pace, total int, state dynamo.State) PaceEvent {
	return PaceEvent{
		Loop:  loop,
		Pace:  pace,
		Total: total,
		MRMS:  math.NaN(),
		APD:   math.NaN(),
		State: state,
	}
}

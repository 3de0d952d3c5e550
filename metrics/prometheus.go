package metrics

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	engineTime *prometheus.CounterVec
	// per pool operation outcome counters
	operationCounter *prometheus.CounterVec
	poolBalanceGauge prometheus.Gauge
	totalEquityGauge prometheus.Gauge
	// Call counters for each request type per API
	apiRequestCallCounter *prometheus.CounterVec
	// Total time counters for each request type per API
	apiRequestTimeCounter *prometheus.CounterVec
)

// abstract prometheus types
type instrument int

// combine all possible prometheus options + way to differentiate between regular or vector type
type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	counter    prometheus.Counter
	histogramV *prometheus.HistogramVec
	histogram  prometheus.Histogram
}

// InstrumentOption - vararg for instrument options setting
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument registers a new metric with the default registry.
func AddInstrument(t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		o := opt.gauge()
		if len(opt.vectors) == 0 {
			ret.gauge = prometheus.NewGauge(o)
			col = ret.gauge
		} else {
			ret.gaugeV = prometheus.NewGaugeVec(o, opt.vectors)
			col = ret.gaugeV
		}
	case Counter:
		o := opt.counter()
		if len(opt.vectors) == 0 {
			ret.counter = prometheus.NewCounter(o)
			col = ret.counter
		} else {
			ret.counterV = prometheus.NewCounterVec(o, opt.vectors)
			col = ret.counterV
		}
	case Histogram:
		o := opt.histogram()
		if len(opt.vectors) == 0 {
			ret.histogram = prometheus.NewHistogram(o)
			col = ret.histogram
		} else {
			ret.histogramV = prometheus.NewHistogramVec(o, opt.vectors)
			col = ret.histogramV
		}
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := prometheus.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Start enable metrics (given config)
func Start(conf Config) {
	if !bool(conf.Enabled) {
		return
	}
	if err := setupMetrics(); err != nil {
		panic("could not set up metrics")
	}
	http.Handle(conf.Path, promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", conf.Port), nil))
	}()
}

func (i instrumentOpts) gauge() prometheus.GaugeOpts {
	return prometheus.GaugeOpts(i.opts)
}

func (i instrumentOpts) counter() prometheus.CounterOpts {
	return prometheus.CounterOpts(i.opts)
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: i.opts.Namespace,
		Name:      i.opts.Name,
		Help:      i.opts.Help,
		Buckets:   i.buckets,
	}
}

func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

func (m mi) Counter() (prometheus.Counter, error) {
	if m.counter == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counter, nil
}

func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func setupMetrics() error {
	h, err := AddInstrument(
		Counter,
		"engine_seconds_total",
		Namespace("cubepool"),
		Vectors("engine", "fn"),
	)
	if err != nil {
		return err
	}
	est, err := h.CounterVec()
	if err != nil {
		return err
	}
	engineTime = est

	h, err = AddInstrument(
		Counter,
		"operations_total",
		Namespace("cubepool"),
		Vectors("operation", "valid"),
		Help("Number of pool operations processed"),
	)
	if err != nil {
		return err
	}
	oc, err := h.CounterVec()
	if err != nil {
		return err
	}
	operationCounter = oc

	h, err = AddInstrument(
		Gauge,
		"pool_balance",
		Namespace("cubepool"),
		Help("Collateral currently owned by cube token holders"),
	)
	if err != nil {
		return err
	}
	pb, err := h.Gauge()
	if err != nil {
		return err
	}
	poolBalanceGauge = pb

	h, err = AddInstrument(
		Gauge,
		"total_equity",
		Namespace("cubepool"),
		Help("Sum of supply times price over all cube tokens"),
	)
	if err != nil {
		return err
	}
	te, err := h.Gauge()
	if err != nil {
		return err
	}
	totalEquityGauge = te

	h, err = AddInstrument(
		Counter,
		"request_count_total",
		Namespace("cubepool"),
		Vectors("apiType", "requestType"),
		Help("Count of API requests"),
	)
	if err != nil {
		return err
	}
	rc, err := h.CounterVec()
	if err != nil {
		return err
	}
	apiRequestCallCounter = rc

	h, err = AddInstrument(
		Counter,
		"request_time_total",
		Namespace("cubepool"),
		Vectors("apiType", "requestType"),
		Help("Total time spent in each API request"),
	)
	if err != nil {
		return err
	}
	rtc, err := h.CounterVec()
	if err != nil {
		return err
	}
	apiRequestTimeCounter = rtc

	return nil
}

// EngineTimeCounterAdd is used to time a function. Call it, using defer, at
// the start of the function to be timed.
//
// e.g.
//
//	defer metrics.EngineTimeCounterAdd("pool", "Deposit")()
//
// Note the extra "()" at the end of the above line - the returned function
// must be called.
func EngineTimeCounterAdd(labelValues ...string) func() {
	start := time.Now()
	return func() {
		// Check that the metric has been set up. (Testing does not use metrics.)
		if engineTime == nil {
			return
		}
		engineTime.WithLabelValues(labelValues...).Add(time.Since(start).Seconds())
	}
}

// OperationCounterInc increments the pool operation counter.
func OperationCounterInc(labelValues ...string) {
	if operationCounter == nil {
		return
	}
	operationCounter.WithLabelValues(labelValues...).Inc()
}

// PoolBalanceSet updates the pool balance gauge.
func PoolBalanceSet(v float64) {
	if poolBalanceGauge == nil {
		return
	}
	poolBalanceGauge.Set(v)
}

// TotalEquitySet updates the total equity gauge.
func TotalEquitySet(v float64) {
	if totalEquityGauge == nil {
		return
	}
	totalEquityGauge.Set(v)
}

// APIRequestAndTimeREST updates the metrics for REST API calls.
func APIRequestAndTimeREST(request string, time float64) {
	if apiRequestCallCounter == nil || apiRequestTimeCounter == nil {
		return
	}
	apiRequestCallCounter.WithLabelValues("REST", request).Inc()
	apiRequestTimeCounter.WithLabelValues("REST", request).Add(time)
}

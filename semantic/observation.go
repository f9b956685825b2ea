// Package semantic defines the canonical in-flight records the QC engine
// consumes and produces: sensor observations keyed by PUID, and the
// outcomes/events the check operators emit against them.
package semantic

import (
	"fmt"
	"strconv"
	"time"
)

// NotAValue is the wire sentinel that marks a numeric observation as null.
const NotAValue = "NotAValue"

// ObservationType distinguishes numeric readings from categorical ones.
type ObservationType int

const (
	Numerical ObservationType = iota
	Categorical
)

func (t ObservationType) String() string {
	if t == Categorical {
		return "Categorical"
	}
	return "Numerical"
}

// PUID is the Procedure Unique IDentifier: the (feature, procedure,
// observableproperty) triple every registry lookup and stream key is
// derived from. It is immutable once an Observation is constructed.
type PUID struct {
	Feature            string
	Procedure          string
	ObservableProperty string
}

func (p PUID) String() string {
	return p.Feature + "::" + p.Procedure + "::" + p.ObservableProperty
}

// Observation is the canonical semantic record. Once constructed it is
// never mutated; operators read it and produce new outcomes/events.
type Observation struct {
	PUID PUID

	PhenomenonTimeStart int64 // epoch millis, UTC
	PhenomenonTimeEnd   int64
	Year                int
	Month               int

	Type           ObservationType
	NumericValue   *float64 // nil means absent/null observation
	CategoricValue *string

	// Processing trail: opaque to the core, forwarded unchanged.
	Quality    int
	Accuracy   int
	Status     string
	Processing string
	Uncertml   string
	Comment    string
	Location   string
	Parameters string
}

// NewNumericObservation constructs a numeric observation. A value equal to
// NotAValue collapses to an absent NumericValue (a null observation), per
// the data model's sentinel rule.
func NewNumericObservation(puid PUID, start, end int64, raw string) (Observation, error) {
	obs := Observation{
		PUID:                puid,
		PhenomenonTimeStart: start,
		PhenomenonTimeEnd:   end,
		Type:                Numerical,
	}
	obs.Year, obs.Month = yearMonth(start)

	if raw == NotAValue {
		return obs, nil
	}
	v, err := parseFloat(raw)
	if err != nil {
		return Observation{}, fmt.Errorf("numeric observation: %w", err)
	}
	obs.NumericValue = &v
	return obs, nil
}

// NewCategoricalObservation constructs a categorical observation.
func NewCategoricalObservation(puid PUID, start, end int64, value string) Observation {
	obs := Observation{
		PUID:                puid,
		PhenomenonTimeStart: start,
		PhenomenonTimeEnd:   end,
		Type:                Categorical,
		CategoricValue:      &value,
	}
	obs.Year, obs.Month = yearMonth(start)
	return obs
}

// IsNull reports whether this is a well-formed record with an absent
// numeric payload (sentinel NotAValue).
func (o Observation) IsNull() bool {
	return o.Type == Numerical && o.NumericValue == nil
}

func yearMonth(epochMillis int64) (int, int) {
	t := time.UnixMilli(epochMillis).UTC()
	return t.Year(), int(t.Month())
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}

// QCOutcomeQuantitative is a per-observation pass/fail record against a
// specific test, with the signed deviation from the violated bound.
type QCOutcomeQuantitative struct {
	PUID              PUID
	Instant           int64
	TestID            string
	Outcome           string // "pass" or "fail"
	QuantitativeValue float64
}

const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// QCEvent is a window-scoped anomaly record not attributable to a single
// observation.
type QCEvent struct {
	PUID             PUID
	EventDescription string
	WindowStart      int64
	WindowEnd        int64
}

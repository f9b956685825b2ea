package semantic

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCSVLine parses the raw-to-semantic wire form described in the
// external interfaces contract:
//
//	feature,procedure,observableproperty,epochMillis,value_or_NotAValue[,...]
//
// Malformed lines are rejected here, before the core ever sees them;
// callers (the ingestion transform) log and reject the delivery without
// requeue, never propagating the row further.
func ParseCSVLine(line string) (Observation, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return Observation{}, fmt.Errorf("malformed observation row: need at least 5 fields, got %d", len(fields))
	}

	puid := PUID{
		Feature:            strings.TrimSpace(fields[0]),
		Procedure:          strings.TrimSpace(fields[1]),
		ObservableProperty: strings.TrimSpace(fields[2]),
	}
	if puid.Feature == "" || puid.Procedure == "" || puid.ObservableProperty == "" {
		return Observation{}, fmt.Errorf("malformed observation row: empty PUID component")
	}

	instant, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return Observation{}, fmt.Errorf("malformed observation row: invalid epochMillis %q: %w", fields[3], err)
	}

	raw := strings.TrimSpace(fields[4])
	obs, err := NewNumericObservation(puid, instant, instant, raw)
	if err != nil {
		return Observation{}, fmt.Errorf("malformed observation row: %w", err)
	}

	applyTrailFields(&obs, fields[5:])
	return obs, nil
}

// trail field order: quality,accuracy,status,processing,uncertml,comment,location,parameters
func applyTrailFields(obs *Observation, trail []string) {
	setters := []func(string){
		func(v string) { obs.Quality, _ = strconv.Atoi(v) },
		func(v string) { obs.Accuracy, _ = strconv.Atoi(v) },
		func(v string) { obs.Status = v },
		func(v string) { obs.Processing = v },
		func(v string) { obs.Uncertml = v },
		func(v string) { obs.Comment = v },
		func(v string) { obs.Location = v },
		func(v string) { obs.Parameters = v },
	}
	for i, v := range trail {
		if i >= len(setters) {
			break
		}
		setters[i](strings.TrimSpace(v))
	}
}

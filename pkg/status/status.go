// Package status defines the aggregate status snapshot the guest proxy agent
// reports to external consumers. Field names are part of the wire contract.
package status

import (
	"encoding/json"
	"fmt"
	"time"
)

type ModuleState int

const (
	ModuleUnknown ModuleState = iota
	ModuleRunning
	ModuleStopped
)

var moduleStateStrings = []string{
	"UNKNOWN",
	"RUNNING",
	"STOPPED",
}

func (s ModuleState) String() string {
	if s < 0 || int(s) >= len(moduleStateStrings) {
		return fmt.Sprintf("ModuleState(%d)", int(s))
	}
	return moduleStateStrings[s]
}

func (s ModuleState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(moduleStateStrings) {
		return nil, fmt.Errorf("invalid module state %d", int(s))
	}
	return []byte(moduleStateStrings[s]), nil
}

func (s *ModuleState) UnmarshalText(text []byte) error {
	for i, v := range moduleStateStrings {
		if v == string(text) {
			*s = ModuleState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown module state %q", text)
}

type OverallState int

// OverallUnknown is the zero value, so a status that was never set is not reported as a success.
const (
	OverallUnknown OverallState = iota
	OverallSuccess
	OverallError
)

var overallStateStrings = []string{
	"UNKNOWN",
	"SUCCESS",
	"ERROR",
}

func (s OverallState) String() string {
	if s < 0 || int(s) >= len(overallStateStrings) {
		return fmt.Sprintf("OverallState(%d)", int(s))
	}
	return overallStateStrings[s]
}

func (s OverallState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(overallStateStrings) {
		return nil, fmt.Errorf("invalid overall state %d", int(s))
	}
	return []byte(overallStateStrings[s]), nil
}

func (s *OverallState) UnmarshalText(text []byte) error {
	for i, v := range overallStateStrings {
		if v == string(text) {
			*s = OverallState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown overall state %q", text)
}

type ProxyAgentDetailStatus struct {
	Status  ModuleState `json:"status"`
	Message string      `json:"message"`
	// States is module specific. A nil map is omitted, an empty one is not.
	States map[string]string `json:"states,omitzero"`
}

type ProxyAgentStatus struct {
	Version               string                 `json:"version"`
	Status                OverallState           `json:"status"`
	MonitorStatus         ProxyAgentDetailStatus `json:"monitorStatus"`
	KeyLatchStatus        ProxyAgentDetailStatus `json:"keyLatchStatus"`
	EbpfProgramStatus     ProxyAgentDetailStatus `json:"ebpfProgramStatus"`
	ProxyListenerStatus   ProxyAgentDetailStatus `json:"proxyListenerStatus"`
	TelemetryLoggerStatus ProxyAgentDetailStatus `json:"telemetryLoggerStatus"`
	ProxyConnectionsCount ConnectionsCount       `json:"proxyConnectionsCount"`
}

// ProxyConnectionSummary counts proxied connections sharing the same
// user, destination, process and response status.
// UserGroups and ProcessFullPath are serialized as null when unset.
type ProxyConnectionSummary struct {
	UserName        string   `json:"userName"`
	IP              string   `json:"ip"`
	Port            uint16   `json:"port"`
	ProcessCmdLine  string   `json:"processCmdLine"`
	ResponseStatus  string   `json:"responseStatus"`
	Count           uint64   `json:"count"`
	UserGroups      []string `json:"userGroups"`
	ProcessFullPath *string  `json:"processFullPath"`
}

// Clone returns a copy of s that shares no storage with it.
func (s ProxyConnectionSummary) Clone() ProxyConnectionSummary {
	c := s
	if s.UserGroups != nil {
		c.UserGroups = append(make([]string, 0, len(s.UserGroups)), s.UserGroups...)
	}
	if s.ProcessFullPath != nil {
		p := *s.ProcessFullPath
		c.ProcessFullPath = &p
	}
	return c
}

type GuestProxyAgentAggregateStatus struct {
	Timestamp                 string                   `json:"timestamp"`
	ProxyAgentStatus          ProxyAgentStatus         `json:"proxyAgentStatus"`
	ProxyConnectionSummary    []ProxyConnectionSummary `json:"proxyConnectionSummary"`
	FailedAuthenticateSummary []ProxyConnectionSummary `json:"failedAuthenticateSummary"`
}

// MarshalJSON emits empty summaries as [] rather than null.
func (s GuestProxyAgentAggregateStatus) MarshalJSON() ([]byte, error) {
	type plain GuestProxyAgentAggregateStatus
	p := plain(s)
	if p.ProxyConnectionSummary == nil {
		p.ProxyConnectionSummary = []ProxyConnectionSummary{}
	}
	if p.FailedAuthenticateSummary == nil {
		p.FailedAuthenticateSummary = []ProxyConnectionSummary{}
	}
	return json.Marshal(p)
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way snapshot timestamps are reported, in UTC with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

package models

import (
	"github.com/jroosing/dnstrace/internal/capture"
	"github.com/jroosing/dnstrace/internal/database"
	"github.com/jroosing/dnstrace/internal/trace"
)

// Event origins reported in EventsResponse.Origin.
const (
	OriginJournal = "journal"
	OriginMemory  = "memory"
)

// EventsResponse lists decoded DNS messages, newest first.
type EventsResponse struct {
	Origin string          `json:"origin"`
	Count  int             `json:"count"`
	Events []trace.Summary `json:"events"`
}

// NamesResponse lists the most frequently observed names.
type NamesResponse struct {
	Count int                 `json:"count"`
	Names []database.NameStat `json:"names"`
}

// InterfacesResponse lists capture devices.
type InterfacesResponse struct {
	Count      int                 `json:"count"`
	Interfaces []capture.Interface `json:"interfaces"`
}

// Package model defines the environment payloads shared across the service.
package model

// Kind names one category of environment data. It labels logs and metrics.
type Kind string

const (
	KindBathymetry Kind = "bathymetry"
	KindSediment   Kind = "sediment"
	KindSSP        Kind = "ssp"
	KindAltimetry  Kind = "altimetry"
	KindArrival    Kind = "arrival"
	KindPressure   Kind = "pressure"
)

func (k Kind) String() string { return string(k) }

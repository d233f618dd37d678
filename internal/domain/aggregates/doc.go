// Package aggregates defines domain-facing aggregate contracts and the error
// taxonomy shared by services and transports.
//
// Nothing here knows about gorm or HTTP.
package aggregates

// Package domain models the environmental data flowing through the risk
// aggregation service: monitoring sensors, live weather observations, air
// quality samples, and the derived wildfire-risk features and tiers.
//
// # Units Convention
//
// All weather values are imperial end-to-end: temperature in degrees
// Fahrenheit, wind speed in miles per hour. The weather client requests
// imperial units from the upstream API, so observations arrive already in
// the units the risk model was trained on. The drought-index formula below
// assumes Fahrenheit input; mixing in Celsius observations would silently
// skew the index, which is why the convention is fixed at this boundary.
//
// # Coordinates
//
// Latitude and longitude are WGS-84 decimal degrees. Spatial points round-trip
// through WKT text as "POINT(lon lat)" — x is longitude, y is latitude. The
// store's write and read paths both follow this order; see [ParsePointWKT].
//
// # Risk Features
//
// The classifier consumes a fixed five-element vector, in this order:
//
//	temperature (°F), humidity (0-100), wind speed (mph),
//	precipitation (inches, last 7 days), drought index (0-100)
//
// The order is part of the model contract and must not change without
// retraining. Precipitation is currently pinned to 0.0 because no historical
// precipitation source is wired up; see [DeriveFeatures].
//
// Drought index approximates dryness from current conditions:
//
//	clamp(((temp-32)/100 + (1 - humidity/100)) * 50, 0, 100)
//
// # Risk Tiers
//
// The model's risk probability maps onto five ordered tiers by closed,
// non-overlapping thresholds:
//
//	p >= 0.8 EXTREME | p >= 0.6 HIGH | p >= 0.4 MODERATE | p >= 0.2 LOW | MINIMAL
package domain

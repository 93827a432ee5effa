package store

import (
	"time"

	"github.com/reliefconnect/relief-connect/internal/models"
)

// SampleAlerts returns the starter record set loaded when the service boots
// with an empty store, backdated relative to startup.
func SampleAlerts() []models.Record {
	now := time.Now()
	return []models.Record{
		{
			Title:              "Cyclone Michaung - Hyderabad Alert",
			Description:        "Severe cyclone approaching Hyderabad. Heavy rainfall and strong winds expected. Immediate evacuation required for low-lying areas.",
			Severity:           models.SeverityCritical,
			Location:           "Hyderabad, Telangana",
			AlertType:          "weather",
			Source:             "Telangana State Emergency Management",
			Status:             "In-Progress",
			Lat:                17.3850,
			Lng:                78.4867,
			CreatedAt:          now.Add(-15 * time.Minute),
			VolunteersNeeded:   25,
			VolunteersAssigned: 18,
		},
		{
			Title:              "Flash Flood - Kukatpally Housing Board",
			Description:        "Urgent help needed for 50 families trapped in flooded apartments. Rescue boats and medical aid required immediately.",
			Severity:           models.SeverityCritical,
			Location:           "Kukatpally, Hyderabad",
			AlertType:          "flood",
			Source:             "GHMC Emergency Response",
			Status:             "Pending",
			Lat:                17.4851,
			Lng:                78.4110,
			CreatedAt:          now.Add(-45 * time.Minute),
			VolunteersNeeded:   15,
			VolunteersAssigned: 8,
		},
		{
			Title:              "Emergency Shelter - Gachibowli",
			Description:        "Temporary shelter established for displaced families. Need volunteers for food distribution and medical assistance.",
			Severity:           models.SeverityHigh,
			Location:           "Gachibowli, Hyderabad",
			AlertType:          "relief",
			Source:             "Red Cross Hyderabad",
			Status:             "In-Progress",
			Lat:                17.4400,
			Lng:                78.3489,
			CreatedAt:          now.Add(-90 * time.Minute),
			VolunteersNeeded:   20,
			VolunteersAssigned: 20,
		},
		{
			Title:       "Urban Flooding and Road Closures",
			Description: "Heavy overnight rains have caused flooding in low-lying areas and major arterial roads. Commuters should avoid vulnerable routes.",
			Severity:    models.SeverityHigh,
			Location:    "Hyderabad (GHMC area)",
			AlertType:   "flood",
			Source:      "Greater Hyderabad Municipal Corporation (GHMC)",
			Lat:         17.385044,
			Lng:         78.486671,
			CreatedAt:   now.Add(-6 * time.Hour),
		},
		{
			Title:       "Coastal Evacuation Advisory",
			Description: "High tidal surges expected along the coastline. Coastal residents should move to temporary shelters until the advisory is lifted.",
			Severity:    models.SeverityCritical,
			Location:    "Chennai Coastline",
			AlertType:   "storm_surge",
			Source:      "IMD / Local Authorities",
			Lat:         13.082680,
			Lng:         80.270721,
			CreatedAt:   now.Add(-12 * time.Hour),
		},
	}
}

// Package travel implements the travel linkage engine: deduplication of
// incoming records, trip status computation, hotel-flight cross-verification,
// and bridging of outbound departures to their home-bound arrivals.
//
// The engine is a deterministic, single-threaded transformation over an
// in-memory working set. It performs no I/O; persistence of the mutated
// records is the storage collaborator's concern.
package travel

import (
	"sort"
	"strings"

	"expense-audit-service/internal/match"
	"expense-audit-service/internal/models"
	"expense-audit-service/pkg/logger"
)

// Engine links travel records into coherent trips.
type Engine struct {
	config  *Config
	matcher *match.Matcher
	logger  logger.Logger
}

// NewEngine creates a travel linkage engine.
func NewEngine(config *Config, matcher *match.Matcher) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		config:  config,
		matcher: matcher,
		logger:  logger.GetGlobalLogger().WithComponent("travel_engine"),
	}
}

// IngestResult reports the outcome of an ingestion pass.
type IngestResult struct {
	Accepted   []*models.TravelLog
	Duplicates []*models.TravelLog
	Rejected   []*models.TravelLog
}

// dedupeKeys tracks the two duplicate identities: reference number and the
// (date, destination city, travel type) composite.
type dedupeKeys struct {
	refs      map[string]bool
	composite map[string]bool
}

func newDedupeKeys(existing []*models.TravelLog) *dedupeKeys {
	keys := &dedupeKeys{
		refs:      make(map[string]bool),
		composite: make(map[string]bool),
	}
	for _, record := range existing {
		keys.add(record)
	}
	return keys
}

func (k *dedupeKeys) add(record *models.TravelLog) {
	if ref := strings.ToLower(strings.TrimSpace(record.ReferenceNumber)); ref != "" {
		k.refs[ref] = true
	}
	k.composite[compositeKey(record)] = true
}

func (k *dedupeKeys) isDuplicate(record *models.TravelLog) bool {
	if ref := strings.ToLower(strings.TrimSpace(record.ReferenceNumber)); ref != "" && k.refs[ref] {
		return true
	}
	return k.composite[compositeKey(record)]
}

func compositeKey(record *models.TravelLog) string {
	return models.FormatDate(record.StartDate) + "|" +
		strings.ToLower(strings.TrimSpace(record.DestinationCity)) + "|" +
		string(record.TravelType)
}

// Ingest deduplicates incoming records against the existing set, then assigns
// each accepted record its initial day accounting, trip status, and hotel
// verification seed. Structurally invalid records are excluded from the run
// rather than aborting the batch.
func (e *Engine) Ingest(existing, incoming []*models.TravelLog) *IngestResult {
	result := &IngestResult{}
	keys := newDedupeKeys(existing)

	for _, record := range incoming {
		if err := record.Validate(); err != nil {
			e.logger.WithError(err).WithField("record_id", record.ID).Warn("Rejecting malformed travel record")
			result.Rejected = append(result.Rejected, record)
			continue
		}

		if keys.isDuplicate(record) {
			e.logger.WithFields(logger.Fields{
				"record_id": record.ID,
				"reference": record.ReferenceNumber,
				"city":      record.DestinationCity,
			}).Debug("Skipping duplicate travel record")
			result.Duplicates = append(result.Duplicates, record)
			continue
		}

		keys.add(record)
		result.Accepted = append(result.Accepted, record)
	}

	sortByStartDate(result.Accepted)

	for _, record := range result.Accepted {
		e.initializeRecord(record)
	}

	e.logger.WithFields(logger.Fields{
		"accepted":   len(result.Accepted),
		"duplicates": len(result.Duplicates),
		"rejected":   len(result.Rejected),
	}).Info("Travel ingestion completed")

	return result
}

// initializeRecord seeds days_spent, status, and hotel verification for a
// newly accepted record.
func (e *Engine) initializeRecord(record *models.TravelLog) {
	home := e.config.IsHome(record.DestinationCity, record.DestinationCountry)
	homeArrival := record.IsFlight() && home

	record.DaysSpent = record.ComputeDaysSpent(homeArrival)

	switch {
	case record.IsAccommodation():
		record.Status = models.StatusComplete
	case record.IsRoundTrip():
		record.Status = models.StatusComplete
		record.DepartureDate = record.StartDate
		record.ReturnDate = record.EndDate
	case homeArrival:
		// A home-bound arrival is not a trip by itself; it stays incomplete
		// until a bridging pass finds the outbound it closes.
		record.Status = models.StatusOutboundMissing
	default:
		record.Status = models.StatusOpen
		record.DepartureDate = record.StartDate
	}

	if record.IsFlight() && !home {
		record.HotelVerification = models.HotelMissing
	} else if record.HotelVerification == "" {
		record.HotelVerification = models.HotelNotRequired
	}
}

// VerifyHotels cross-checks every unverified, non-home flight against the
// accommodation records: a hotel whose city textually overlaps the flight's
// destination, whose check-in falls inside the verification window, and which
// is unlinked (or already linked to this flight) proves the stay. At most one
// hotel is linked per flight per run; already-verified flights are skipped,
// so the pass is idempotent.
func (e *Engine) VerifyHotels(records []*models.TravelLog) int {
	hotels := make([]*models.TravelLog, 0)
	for _, record := range records {
		if record.IsAccommodation() {
			hotels = append(hotels, record)
		}
	}
	sortByStartDate(hotels)

	linked := 0
	for _, flight := range records {
		if !flight.IsFlight() || flight.HotelVerification != models.HotelMissing {
			continue
		}
		if e.config.IsHome(flight.DestinationCity, flight.DestinationCountry) {
			continue
		}

		for _, hotel := range hotels {
			if hotel.LinkedFlightID != "" && hotel.LinkedFlightID != flight.ID {
				continue
			}
			if !match.CityOverlap(flight.DestinationCity, hotel.DestinationCity) {
				continue
			}
			if !e.matcher.WithinHotelWindow(hotel.StartDate, flight.StartDate) {
				continue
			}

			flight.HotelVerification = models.HotelVerified
			flight.LinkedHotelID = hotel.ID
			hotel.HotelVerification = models.HotelVerified
			hotel.LinkedFlightID = flight.ID
			hotel.Status = models.StatusComplete
			linked++

			e.logger.WithFields(logger.Fields{
				"flight_id": flight.ID,
				"hotel_id":  hotel.ID,
				"city":      flight.DestinationCity,
			}).Debug("Hotel verified for flight")
			break
		}
	}

	if linked > 0 {
		e.logger.WithField("linked", linked).Info("Hotel verification pass completed")
	}
	return linked
}

// BridgeReturns links each home-bound arrival to the nearest preceding
// unbridged outbound departure, closing the most recent open trip first.
// Bridged pairs are tracked in a pass-scoped set so a single pass never
// double-bridges one outbound to two arrivals. An arrival with no candidate
// outbound is not an error; a later ingestion pass may resolve it.
func (e *Engine) BridgeReturns(records []*models.TravelLog) int {
	arena := make(map[string]*models.TravelLog, len(records))
	var arrivals, outbounds []*models.TravelLog

	for _, record := range records {
		arena[record.ID] = record
		if !record.IsFlight() {
			continue
		}
		if e.config.IsHome(record.DestinationCity, record.DestinationCountry) {
			arrivals = append(arrivals, record)
		} else if record.Status == models.StatusOpen && record.ReturnFlightID == "" {
			outbounds = append(outbounds, record)
		}
	}

	sortByStartDate(arrivals)
	sortByStartDate(outbounds)

	bridged := make(map[string]bool)
	count := 0

	for _, arrival := range arrivals {
		if arrival.OutboundFlightID != "" {
			continue
		}

		// Reverse chronological scan: the nearest preceding unbridged
		// outbound closes first, which keeps overlapping trips coherent.
		for i := len(outbounds) - 1; i >= 0; i-- {
			outbound := outbounds[i]
			if bridged[outbound.ID] || outbound.ReturnFlightID != "" {
				continue
			}
			if outbound.StartDate.After(arrival.StartDate) {
				continue
			}

			outbound.Status = models.StatusComplete
			outbound.ReturnDate = arrival.StartDate
			outbound.ReturnFlightID = arrival.ID
			outbound.DaysSpent = models.InclusiveDays(outbound.StartDate, arrival.StartDate)

			arrival.OutboundFlightID = outbound.ID
			arrival.Status = models.StatusComplete

			bridged[outbound.ID] = true
			count++

			e.logger.WithFields(logger.Fields{
				"outbound_id": outbound.ID,
				"arrival_id":  arrival.ID,
				"days_spent":  outbound.DaysSpent,
			}).Debug("Bridged outbound to home arrival")
			break
		}
	}

	if count > 0 {
		e.logger.WithField("bridged", count).Info("Return bridging pass completed")
	}
	return count
}

// Run executes a full linkage pass: ingest, verify hotels, bridge returns.
// The returned slice is the merged working set (existing plus accepted).
func (e *Engine) Run(existing, incoming []*models.TravelLog) ([]*models.TravelLog, *IngestResult) {
	ingest := e.Ingest(existing, incoming)

	working := make([]*models.TravelLog, 0, len(existing)+len(ingest.Accepted))
	working = append(working, existing...)
	working = append(working, ingest.Accepted...)
	sortByStartDate(working)

	e.VerifyHotels(working)
	e.BridgeReturns(working)

	return working, ingest
}

// sortByStartDate sorts records by start date, breaking ties by id so
// iteration order is stable and deterministic.
func sortByStartDate(records []*models.TravelLog) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].StartDate.Equal(records[j].StartDate) {
			return records[i].ID < records[j].ID
		}
		return records[i].StartDate.Before(records[j].StartDate)
	})
}

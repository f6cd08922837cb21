package summary

import (
	"time"

	"bloodbank/internal/inventory/models"
	id "bloodbank/pkg/domain"
)

// cacheKeyPrefix namespaces stock summaries; the holder kind is part of the key
// because a lab and a hospital may share a facility id.
const cacheKeyPrefix = "stock:summary:"

func cacheKey(holder models.Holder) string {
	return cacheKeyPrefix + string(holder.Kind()) + ":" + holder.Facility().String()
}

// record is the serialised form of a StockSummary. Holder fields are
// unexported on the domain type, so they are flattened here.
type record struct {
	HolderKind  string         `json:"holder_kind"`
	FacilityID  string         `json:"facility_id"`
	Totals      map[string]int `json:"totals"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func toRecord(s *models.StockSummary) record {
	totals := make(map[string]int, len(s.Totals))
	for g, q := range s.Totals {
		totals[string(g)] = q.Int()
	}
	return record{
		HolderKind:  string(s.Holder.Kind()),
		FacilityID:  s.Holder.Facility().String(),
		Totals:      totals,
		GeneratedAt: s.GeneratedAt,
	}
}

func (r record) toSummary() (*models.StockSummary, error) {
	kind, err := models.ParseHolderKind(r.HolderKind)
	if err != nil {
		return nil, err
	}
	facility, err := id.ParseFacilityID(r.FacilityID)
	if err != nil {
		return nil, err
	}
	holder, err := models.NewHolder(kind, facility)
	if err != nil {
		return nil, err
	}
	out := models.NewStockSummary(holder, r.GeneratedAt)
	for g, q := range r.Totals {
		group, err := models.ParseBloodGroup(g)
		if err != nil {
			return nil, err
		}
		out.Totals[group] = models.Quantity(q)
	}
	return out, nil
}

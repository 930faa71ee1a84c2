package ner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgergraph-ai/sdk/graph"
)

// GraphElements converts the extraction into graph entities and
// relationships ready for ingestion. Entity IDs are minted here; employment
// and regulatory-event references are resolved by entity name within this
// extraction, and unresolvable references are skipped.
func GraphElements(ex *Extraction) ([]graph.Entity, []graph.Relationship) {
	entities := make([]graph.Entity, 0, ex.Count())
	relationships := make([]graph.Relationship, 0, len(ex.Employments)+len(ex.RegulatoryEvents))

	companyIDs := make(map[string]string, len(ex.Companies))
	personIDs := make(map[string]string, len(ex.People))

	for _, c := range ex.Companies {
		e := graph.NewEntity("Company").WithID(uuid.NewString())
		setProp(e, "name", c.Name)
		setProp(e, "ticker", c.Ticker)
		setProp(e, "sector", c.Sector)
		setProp(e, "industry", c.Industry)
		setProp(e, "market_cap", c.MarketCap)
		setProp(e, "founded_year", c.FoundedYear)
		setProp(e, "headquarters", c.Headquarters)
		setProp(e, "employee_count", c.EmployeeCount)
		companyIDs[c.Name] = e.ID
		entities = append(entities, *e)
	}

	for _, p := range ex.People {
		e := graph.NewEntity("Person").WithID(uuid.NewString())
		setProp(e, "name", p.Name)
		setProp(e, "title", p.Title)
		setProp(e, "age", p.Age)
		setProp(e, "nationality", p.Nationality)
		setProp(e, "education", p.Education)
		personIDs[p.Name] = e.ID
		entities = append(entities, *e)
	}

	for _, r := range ex.Ratings {
		e := graph.NewEntity("Rating").WithID(uuid.NewString())
		setProp(e, "rating", r.Rating)
		setProp(e, "rating_agency", r.RatingAgency)
		setProp(e, "rating_type", r.RatingType)
		setProp(e, "valid_from", r.ValidFrom)
		setProp(e, "valid_to", r.ValidTo)
		entities = append(entities, *e)
	}

	for _, t := range ex.Transactions {
		e := graph.NewEntity("Transaction").WithID(uuid.NewString())
		setProp(e, "type", t.Type)
		setProp(e, "value", t.Value)
		setProp(e, "currency", t.Currency)
		setProp(e, "status", t.Status)
		setProp(e, "announced_date", t.AnnouncedDate)
		setProp(e, "completed_date", t.CompletedDate)
		setProp(e, "description", t.Description)
		entities = append(entities, *e)
	}

	for _, ev := range ex.RegulatoryEvents {
		e := graph.NewEntity("RegulatoryEvent").WithID(uuid.NewString())
		setProp(e, "event_type", ev.EventType)
		setProp(e, "regulator", ev.Regulator)
		setProp(e, "description", ev.Description)
		setProp(e, "amount", ev.Amount)
		setProp(e, "currency", ev.Currency)
		setProp(e, "event_date", ev.EventDate)
		setProp(e, "resolution_date", ev.ResolutionDate)
		setProp(e, "status", ev.Status)
		entities = append(entities, *e)

		if companyID, ok := companyIDs[ev.CompanyName]; ok {
			relationships = append(relationships, *graph.NewRelationship(companyID, e.ID, "SUBJECT_TO"))
		}
	}

	for _, emp := range ex.Employments {
		personID, okPerson := personIDs[emp.PersonName]
		companyID, okCompany := companyIDs[emp.CompanyName]
		if !okPerson || !okCompany {
			continue
		}
		r := graph.NewRelationship(personID, companyID, "EMPLOYED_BY")
		if emp.Position != "" {
			r.WithProperty("position", emp.Position)
		}
		if emp.StartDate != "" {
			r.WithProperty("start_date", emp.StartDate)
		}
		if emp.EndDate != "" {
			r.WithProperty("end_date", emp.EndDate)
		}
		if emp.Salary != 0 {
			r.WithProperty("salary", emp.Salary)
		}
		relationships = append(relationships, *r)
	}

	return entities, relationships
}

// Ingest writes the extraction into the graph backend and returns the number
// of elements created (entities plus relationships). It stops at the first
// backend error.
func Ingest(ctx context.Context, client graph.Client, ex *Extraction) (int, error) {
	entities, relationships := GraphElements(ex)

	created := 0
	for _, e := range entities {
		if _, err := client.CreateEntity(ctx, e); err != nil {
			return created, fmt.Errorf("create %s %q: %w", e.Label, e.Name(), err)
		}
		created++
	}
	for _, r := range relationships {
		if err := client.CreateRelationship(ctx, r); err != nil {
			return created, fmt.Errorf("create %s relationship: %w", r.Label, err)
		}
		created++
	}
	return created, nil
}

// setProp records a property unless its value is the type's zero value.
func setProp(e *graph.Entity, key string, value any) {
	switch v := value.(type) {
	case string:
		if v != "" {
			e.WithProperty(key, v)
		}
	case int:
		if v != 0 {
			e.WithProperty(key, v)
		}
	case float64:
		if v != 0 {
			e.WithProperty(key, v)
		}
	}
}

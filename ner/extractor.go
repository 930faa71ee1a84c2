package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgergraph-ai/sdk/inference"
	"github.com/ledgergraph-ai/sdk/parser"
)

const extractTask = `Extract named entities from financial report text and structure them according to the extraction schema.

Extract companies, people, ratings, transactions, employments, and regulatory events. Only include entities the text actually mentions; leave out sections with no matches rather than inventing entries.`

// extractionSchema tells the model which sections and fields to produce.
// Section keys and field names here are the contract the normalization pass
// parses against.
const extractionSchema = `Sections of the extracted_entities JSON object:

"companies": name (required), ticker, sector, industry, marketCap, foundedYear, headquarters, employeeCount
"people": name (required), title, age, nationality, education
"ratings": rating (required, e.g. "AAA", "BBB-"), ratingAgency (required, e.g. "Moody's", "S&P", "Fitch"), ratingType ("credit", "debt", "outlook"), validFrom, validTo
"transactions": type (required, e.g. "merger", "acquisition"), value, currency, status ("announced", "completed", "cancelled"), announcedDate, completedDate, description
"employments": personName (required), companyName (required), position, startDate, endDate, salary
"regulatory_events": eventType (required, e.g. "fine", "investigation"), regulator (required, e.g. "SEC", "FINRA"), companyName, description, amount, currency, eventDate, resolutionDate, status ("pending", "resolved", "ongoing")

Dates may be free-form mentions ("March 2024"); monetary values may be phrases ("$2.3 billion").`

// Extractor pulls typed financial entities out of free text on the prompted
// inference port.
type Extractor struct {
	inference     inference.Client
	schemaContext string
	logger        *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSchemaContext replaces the extraction schema rendered into prompts.
func WithSchemaContext(schemaContext string) Option {
	return func(e *Extractor) {
		e.schemaContext = schemaContext
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an extractor with the default extraction schema.
func NewExtractor(client inference.Client, opts ...Option) *Extractor {
	e := &Extractor{
		inference:     client,
		schemaContext: extractionSchema,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract pulls entities out of the text and normalizes them. The returned
// Extraction always has non-nil sections; entity mentions missing their
// required fields are dropped during normalization.
func (e *Extractor) Extract(ctx context.Context, text string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}

	req := inference.NewRequest(extractTask).
		WithInput("text", text).
		WithInput("schema_context", e.schemaContext).
		WithOutput("extracted_entities", "JSON object with the extracted entities, keyed by section")

	resp, err := e.inference.Infer(ctx, *req)
	if err != nil {
		return nil, fmt.Errorf("entity extraction failed: %w", err)
	}

	raw := resp.Output("extracted_entities")
	extraction, err := parseExtraction(raw)
	if err != nil {
		return nil, err
	}
	extraction.Raw = raw

	e.logger.Debug("entities extracted",
		slog.Int("count", extraction.Count()),
		slog.Int("text_len", len(text)))

	return extraction, nil
}

// parseExtraction parses the model's entity object and normalizes it.
func parseExtraction(raw string) (*Extraction, error) {
	jsonText, err := parser.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("extracted entities are not JSON: %s", truncateRaw(raw))
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &sections); err != nil {
		return nil, fmt.Errorf("parse extracted entities: %w", err)
	}

	// Section keys arrive in whatever case the model chose.
	normalized := make(map[string]json.RawMessage, len(sections))
	for key, value := range sections {
		normalized[strings.ToLower(key)] = value
	}

	return normalizeSections(normalized), nil
}

// normalizeSections applies required-field filtering and per-type defaults.
func normalizeSections(sections map[string]json.RawMessage) *Extraction {
	out := &Extraction{
		Companies:        []Company{},
		People:           []Person{},
		Ratings:          []Rating{},
		Transactions:     []Transaction{},
		Employments:      []Employment{},
		RegulatoryEvents: []RegulatoryEvent{},
	}

	for _, m := range sectionObjects(sections["companies"]) {
		name := stringField(m, "name")
		if name == "" {
			continue
		}
		out.Companies = append(out.Companies, Company{
			Name:          name,
			Ticker:        stringField(m, "ticker"),
			Sector:        stringFieldOr(m, "sector", "Unknown"),
			Industry:      stringFieldOr(m, "industry", "Unknown"),
			MarketCap:     amountField(m, "marketCap"),
			FoundedYear:   intField(m, "foundedYear"),
			Headquarters:  stringField(m, "headquarters"),
			EmployeeCount: intField(m, "employeeCount"),
		})
	}

	for _, m := range sectionObjects(sections["people"]) {
		name := stringField(m, "name")
		if name == "" {
			continue
		}
		out.People = append(out.People, Person{
			Name:        name,
			Title:       stringField(m, "title"),
			Age:         intField(m, "age"),
			Nationality: stringField(m, "nationality"),
			Education:   stringField(m, "education"),
		})
	}

	for _, m := range sectionObjects(sections["ratings"]) {
		rating := stringField(m, "rating")
		agency := stringField(m, "ratingAgency")
		if rating == "" || agency == "" {
			continue
		}
		out.Ratings = append(out.Ratings, Rating{
			Rating:       rating,
			RatingAgency: agency,
			RatingType:   stringFieldOr(m, "ratingType", "credit"),
			ValidFrom:    dateField(m, "validFrom"),
			ValidTo:      dateField(m, "validTo"),
		})
	}

	for _, m := range sectionObjects(sections["transactions"]) {
		txType := stringField(m, "type")
		if txType == "" {
			continue
		}
		out.Transactions = append(out.Transactions, Transaction{
			Type:          txType,
			Value:         amountField(m, "value"),
			Currency:      stringFieldOr(m, "currency", "USD"),
			Status:        stringFieldOr(m, "status", "announced"),
			AnnouncedDate: dateField(m, "announcedDate"),
			CompletedDate: dateField(m, "completedDate"),
			Description:   stringField(m, "description"),
		})
	}

	for _, m := range sectionObjects(sections["employments"]) {
		person := stringField(m, "personName")
		company := stringField(m, "companyName")
		if person == "" || company == "" {
			continue
		}
		out.Employments = append(out.Employments, Employment{
			PersonName:  person,
			CompanyName: company,
			Position:    stringFieldOr(m, "position", "Unknown"),
			StartDate:   dateField(m, "startDate"),
			EndDate:     dateField(m, "endDate"),
			Salary:      amountField(m, "salary"),
		})
	}

	for _, m := range sectionObjects(sections["regulatory_events"]) {
		eventType := stringField(m, "eventType")
		regulator := stringField(m, "regulator")
		if eventType == "" || regulator == "" {
			continue
		}
		out.RegulatoryEvents = append(out.RegulatoryEvents, RegulatoryEvent{
			CompanyName:    stringField(m, "companyName"),
			EventType:      eventType,
			Regulator:      regulator,
			Description:    stringField(m, "description"),
			Amount:         amountField(m, "amount"),
			Currency:       stringFieldOr(m, "currency", "USD"),
			EventDate:      dateField(m, "eventDate"),
			ResolutionDate: dateField(m, "resolutionDate"),
			Status:         stringFieldOr(m, "status", "pending"),
		})
	}

	return out
}

// sectionObjects parses one section into loose objects. Missing or malformed
// sections yield nothing rather than failing the extraction.
func sectionObjects(raw json.RawMessage) []map[string]any {
	if raw == nil {
		return nil
	}
	items, err := parser.ParseJSONArray[map[string]any](raw)
	if err != nil {
		return nil
	}
	return items
}

func truncateRaw(s string) string {
	if len(s) <= 120 {
		return s
	}
	return s[:120] + "..."
}

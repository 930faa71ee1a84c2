package ner

// Extraction holds the normalized entities pulled from one text. Sections
// are always non-nil; an empty section means nothing of that type was found.
//
// JSON field names follow the extraction schema the model is prompted with,
// so a serialized Extraction round-trips against the model's own output keys.
type Extraction struct {
	Companies        []Company         `json:"companies"`
	People           []Person          `json:"people"`
	Ratings          []Rating          `json:"ratings"`
	Transactions     []Transaction     `json:"transactions"`
	Employments      []Employment      `json:"employments"`
	RegulatoryEvents []RegulatoryEvent `json:"regulatory_events"`

	// Raw is the model's unprocessed output, kept for diagnostics.
	Raw string `json:"raw_extraction,omitempty"`
}

// Count returns the total number of extracted entities across all sections.
func (e *Extraction) Count() int {
	return len(e.Companies) + len(e.People) + len(e.Ratings) +
		len(e.Transactions) + len(e.Employments) + len(e.RegulatoryEvents)
}

// Company is an extracted company mention.
type Company struct {
	Name          string  `json:"name"`
	Ticker        string  `json:"ticker,omitempty"`
	Sector        string  `json:"sector"`
	Industry      string  `json:"industry"`
	MarketCap     float64 `json:"marketCap,omitempty"`
	FoundedYear   int     `json:"foundedYear,omitempty"`
	Headquarters  string  `json:"headquarters,omitempty"`
	EmployeeCount int     `json:"employeeCount,omitempty"`
}

// Person is an extracted person mention.
type Person struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Age         int    `json:"age,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Education   string `json:"education,omitempty"`
}

// Rating is an extracted credit rating assignment.
type Rating struct {
	Rating       string `json:"rating"`
	RatingAgency string `json:"ratingAgency"`
	RatingType   string `json:"ratingType"`
	ValidFrom    string `json:"validFrom,omitempty"`
	ValidTo      string `json:"validTo,omitempty"`
}

// Transaction is an extracted deal: a merger, acquisition, or similar.
type Transaction struct {
	Type          string  `json:"type"`
	Value         float64 `json:"value,omitempty"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	AnnouncedDate string  `json:"announcedDate,omitempty"`
	CompletedDate string  `json:"completedDate,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// Employment links an extracted person to an extracted company by name.
type Employment struct {
	PersonName  string  `json:"personName"`
	CompanyName string  `json:"companyName"`
	Position    string  `json:"position"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Salary      float64 `json:"salary,omitempty"`
}

// RegulatoryEvent is an extracted regulatory action against a company.
type RegulatoryEvent struct {
	CompanyName    string  `json:"companyName,omitempty"`
	EventType      string  `json:"eventType"`
	Regulator      string  `json:"regulator"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount,omitempty"`
	Currency       string  `json:"currency"`
	EventDate      string  `json:"eventDate,omitempty"`
	ResolutionDate string  `json:"resolutionDate,omitempty"`
	Status         string  `json:"status"`
}

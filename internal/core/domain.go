package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Work item types carry their Polish display labels so snapshots
	// round-trip with data written by earlier versions of the app.
	WorkConsultations WorkType = "Konsultacje telefoniczne"
	WorkOpex          WorkType = "Prace podstawowe OPEX"
	WorkCapex         WorkType = "Prace podstawowe CAPEX"

	StatusActive   OrderStatus = "aktywne"
	StatusInactive OrderStatus = "nieaktywne"
	StatusArchived OrderStatus = "archiwalne"
)

type (
	WorkType    string
	OrderStatus string

	// BlobRef is an opaque reference to binary content (a base64 data URI).
	// The core never inspects it; encoding and decoding live in pdfmerge.
	BlobRef string

	Date struct {
		time.Time
	}

	Client struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		TaxID  string   `json:"nip"`
		Phone  string   `json:"phone"`
		Emails []string `json:"emails"`
	}

	// OrderItem is a contracted line item: Hours is the lifetime limit
	// billable against this (order, work type) pair.
	OrderItem struct {
		Type  WorkType `json:"type"`
		Hours float64  `json:"hours"`
		Rate  float64  `json:"rate"`
	}

	Attachment struct {
		ID          string  `json:"id"`
		FileName    string  `json:"fileName"`
		FileContent BlobRef `json:"fileContent"`
	}

	Order struct {
		ID             string       `json:"id"`
		ClientID       string       `json:"clientId"`
		OrderNumber    string       `json:"orderNumber"`
		SupplierNumber string       `json:"supplierNumber"`
		DocumentDate   Date         `json:"documentDate"`
		DeliveryDate   Date         `json:"deliveryDate"`
		ContractNumber string       `json:"contractNumber"`
		OrderingPerson string       `json:"orderingPerson"`
		Status         OrderStatus  `json:"status"`
		Items          []OrderItem  `json:"items"`
		Attachments    []Attachment `json:"attachments,omitempty"`
	}

	// SettlementItem records hours actually worked against an order line
	// item. Rate is captured at settlement time and stays fixed even if
	// the order's rate later changes.
	SettlementItem struct {
		ID       string   `json:"id"`
		OrderID  string   `json:"orderId"`
		ItemType WorkType `json:"itemType"`
		Hours    float64  `json:"hours"`
		Rate     float64  `json:"rate"`
	}

	Settlement struct {
		ID    string           `json:"id"`
		Year  int              `json:"year"`
		Month int              `json:"month"`
		Date  Date             `json:"date"`
		Items []SettlementItem `json:"items"`
	}

	MonthlyDocument struct {
		ID         string  `json:"id"`
		Year       int     `json:"year"`
		Month      int     `json:"month"`
		PozPDF     BlobRef `json:"pozPdf,omitempty"`
		InvoicePDF BlobRef `json:"invoicePdf,omitempty"`
	}

	// Snapshot is the full application state. Accounting and aggregation
	// functions take it by value and derive results without mutating it.
	Snapshot struct {
		Clients          []Client          `json:"clients"`
		Orders           []Order           `json:"orders"`
		Settlements      []Settlement      `json:"settlements"`
		MonthlyDocuments []MonthlyDocument `json:"monthlyDocuments"`
	}
)

var (
	ErrEmptyName         = errors.New("empty client name")
	ErrInvalidWorkType   = errors.New("invalid work item type")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrNegativeHours     = errors.New("hours cannot be negative")
	ErrNegativeRate      = errors.New("rate cannot be negative")
	ErrDuplicateWorkType = errors.New("duplicate work item type on order")
	ErrEmptyOrderNumber  = errors.New("empty order number")
	ErrMissingClientRef  = errors.New("order does not reference a client")
	ErrMissingOrderRef   = errors.New("settlement item does not reference an order")
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
)

// WorkTypes returns all work item types in canonical order.
func WorkTypes() []WorkType {
	return []WorkType{WorkConsultations, WorkOpex, WorkCapex}
}

func (t WorkType) Valid() bool {
	switch t {
	case WorkConsultations, WorkOpex, WorkCapex:
		return true
	default:
		return false
	}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	default:
		return false
	}
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MarshalJSON encodes the date as "YYYY-MM-DD", matching the snapshot format.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PeriodID formats the canonical "{year}-{zero-padded month}" identifier
// used for monthly documents and export keys.
func PeriodID(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (i OrderItem) Validate() error {
	if !i.Type.Valid() {
		return ErrInvalidWorkType
	}
	if i.Hours < 0 {
		return ErrNegativeHours
	}
	if i.Rate < 0 {
		return ErrNegativeRate
	}
	return nil
}

// Validate checks the order's own fields. Duplicate line-item types are
// rejected: each work type may appear at most once per order.
func (o Order) Validate() error {
	if strings.TrimSpace(o.ClientID) == "" {
		return ErrMissingClientRef
	}
	if strings.TrimSpace(o.OrderNumber) == "" {
		return ErrEmptyOrderNumber
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	seen := make(map[WorkType]struct{}, len(o.Items))
	for _, item := range o.Items {
		if err := item.Validate(); err != nil {
			return err
		}
		if _, dup := seen[item.Type]; dup {
			return ErrDuplicateWorkType
		}
		seen[item.Type] = struct{}{}
	}
	return nil
}

// Item returns the order line item for the given work type, if present.
func (o Order) Item(t WorkType) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.Type == t {
			return item, true
		}
	}
	return OrderItem{}, false
}

func (i SettlementItem) Validate() error {
	if strings.TrimSpace(i.OrderID) == "" {
		return ErrMissingOrderRef
	}
	if !i.ItemType.Valid() {
		return ErrInvalidWorkType
	}
	if i.Hours < 0 {
		return ErrNegativeHours
	}
	return nil
}

// Value is the billed value of the item in PLN.
func (i SettlementItem) Value() float64 {
	return i.Hours * i.Rate
}

func (s Settlement) Validate() error {
	if s.Month < 1 || s.Month > 12 {
		return ErrInvalidMonth
	}
	for _, item := range s.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PeriodID returns the "{year}-{month}" identifier of the settled period.
func (s Settlement) PeriodID() string {
	return PeriodID(s.Year, s.Month)
}

// TotalValue sums hours times rate over all items.
func (s Settlement) TotalValue() float64 {
	var total float64
	for _, item := range s.Items {
		total += item.Value()
	}
	return total
}

// ClientByID looks a client up by id.
func (snap Snapshot) ClientByID(id string) (Client, bool) {
	for _, c := range snap.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// OrderByID looks an order up by id.
func (snap Snapshot) OrderByID(id string) (Order, bool) {
	for _, o := range snap.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

// SettlementByID looks a settlement up by id.
func (snap Snapshot) SettlementByID(id string) (Settlement, bool) {
	for _, s := range snap.Settlements {
		if s.ID == id {
			return s, true
		}
	}
	return Settlement{}, false
}

// SettlementForPeriod returns the settlement for (year, month), if any.
// At most one may exist per period.
func (snap Snapshot) SettlementForPeriod(year, month int) (Settlement, bool) {
	for _, s := range snap.Settlements {
		if s.Year == year && s.Month == month {
			return s, true
		}
	}
	return Settlement{}, false
}

// ActiveOrders returns orders with status Active, preserving order.
func (snap Snapshot) ActiveOrders() []Order {
	var out []Order
	for _, o := range snap.Orders {
		if o.Status == StatusActive {
			out = append(out, o)
		}
	}
	return out
}

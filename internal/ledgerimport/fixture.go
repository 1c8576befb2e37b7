// Package ledgerimport loads a company's posted documents from a YAML
// fixture into the bundled ledger tables.
package ledgerimport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/pkg/utils"
)

// ErrInvalidFixture is returned for fixtures that reference unknown records
// or carry malformed values
var ErrInvalidFixture = errors.New("invalid ledger fixture")

// Fixture is the YAML document layout
type Fixture struct {
	Company   entity.Company   `yaml:"company"`
	Partners  []entity.Partner `yaml:"partners"`
	Documents []DocumentEntry  `yaml:"documents"`
}

// DocumentEntry is one invoice or credit note
type DocumentEntry struct {
	ID          string      `yaml:"id"`
	Type        string      `yaml:"type"`
	State       string      `yaml:"state"`
	Number      string      `yaml:"number"`
	Partner     string      `yaml:"partner"`
	InvoiceDate string      `yaml:"invoice_date"`
	SupplyDate  string      `yaml:"supply_date"`
	Reverses    string      `yaml:"reverses"`
	Lines       []LineEntry `yaml:"lines"`
}

// LineEntry is one document line. Amounts are decimal strings.
type LineEntry struct {
	Description string   `yaml:"description"`
	Net         string   `yaml:"net"`
	Gross       string   `yaml:"gross"`
	TaxRates    []string `yaml:"tax_rates"`
}

// Parse decodes a fixture, rejecting unknown fields
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if f.Company.ID == "" {
		return fmt.Errorf("%w: company.id is required", ErrInvalidFixture)
	}
	if f.Company.VAT != "" {
		if err := utils.ValidateVATNumber(f.Company.VAT); err != nil {
			return fmt.Errorf("%w: company: %w", ErrInvalidFixture, err)
		}
	}
	if f.Company.Email != "" {
		if err := utils.ValidateEmail(f.Company.Email); err != nil {
			return fmt.Errorf("%w: company: %w", ErrInvalidFixture, err)
		}
	}

	for _, p := range f.Partners {
		if p.ID == "" {
			return fmt.Errorf("%w: partner without id", ErrInvalidFixture)
		}
		if p.VAT != "" {
			if err := utils.ValidateVATNumber(p.VAT); err != nil {
				return fmt.Errorf("%w: partner %s: %w", ErrInvalidFixture, p.ID, err)
			}
		}
	}
	return nil
}

// Build converts the fixture into ledger documents. Documents are ordered
// so that every reversed invoice precedes its credit notes.
func (f *Fixture) Build() ([]*entity.Document, error) {
	partners := make(map[string]*entity.Partner, len(f.Partners))
	for i := range f.Partners {
		p := f.Partners[i]
		partners[p.ID] = &p
	}

	ids := make(map[string]bool, len(f.Documents))
	for _, entry := range f.Documents {
		if entry.ID == "" {
			return nil, fmt.Errorf("%w: document without id", ErrInvalidFixture)
		}
		if ids[entry.ID] {
			return nil, fmt.Errorf("%w: duplicate document %s", ErrInvalidFixture, entry.ID)
		}
		ids[entry.ID] = true
	}

	var plain, reversing []*entity.Document
	for _, entry := range f.Documents {
		doc, err := entry.build(f.Company.ID, partners)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %w", ErrInvalidFixture, entry.ID, err)
		}
		if doc.ReversedEntry != nil {
			if !ids[doc.ReversedEntry.ID] {
				return nil, fmt.Errorf("%w: document %s reverses unknown %s", ErrInvalidFixture, entry.ID, doc.ReversedEntry.ID)
			}
			reversing = append(reversing, doc)
			continue
		}
		plain = append(plain, doc)
	}
	return append(plain, reversing...), nil
}

func (s DocumentEntry) build(companyID string, partners map[string]*entity.Partner) (*entity.Document, error) {
	doc := &entity.Document{
		ID:        s.ID,
		CompanyID: companyID,
		Type:      s.Type,
		State:     s.State,
		Number:    s.Number,
	}
	if doc.Type == "" {
		doc.Type = entity.DocumentTypeInvoice
	}
	if doc.Type != entity.DocumentTypeInvoice && doc.Type != entity.DocumentTypeCreditNote {
		return nil, fmt.Errorf("unsupported type %q", doc.Type)
	}
	if doc.State == "" {
		doc.State = entity.DocumentStatePosted
	}

	if s.Partner != "" {
		p, ok := partners[s.Partner]
		if !ok {
			return nil, fmt.Errorf("unknown partner %s", s.Partner)
		}
		doc.Partner = p
	}

	invoiceDate, err := parseDate(s.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("invoice_date: %w", err)
	}
	if invoiceDate == nil {
		return nil, errors.New("invoice_date is required")
	}
	doc.InvoiceDate = *invoiceDate

	doc.SupplyDate, err = parseDate(s.SupplyDate)
	if err != nil {
		return nil, fmt.Errorf("supply_date: %w", err)
	}

	if s.Reverses != "" {
		doc.ReversedEntry = &entity.DocumentRef{ID: s.Reverses}
	}

	for i, ls := range s.Lines {
		line, err := ls.build()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}

func (l LineEntry) build() (entity.DocumentLine, error) {
	net, err := decimal.NewFromString(strings.TrimSpace(l.Net))
	if err != nil {
		return entity.DocumentLine{}, fmt.Errorf("net: %w", err)
	}
	gross, err := decimal.NewFromString(strings.TrimSpace(l.Gross))
	if err != nil {
		return entity.DocumentLine{}, fmt.Errorf("gross: %w", err)
	}

	line := entity.DocumentLine{
		Description: l.Description,
		NetAmount:   net,
		GrossAmount: gross,
	}
	for _, r := range l.TaxRates {
		rate, err := decimal.NewFromString(strings.TrimSpace(r))
		if err != nil {
			return entity.DocumentLine{}, fmt.Errorf("tax rate: %w", err)
		}
		line.TaxRates = append(line.TaxRates, rate)
	}
	return line, nil
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if len(value) > len(entity.DateLayout) {
		value = value[:len(entity.DateLayout)]
	}
	t, err := entity.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

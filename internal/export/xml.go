package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

// DefaultNamespace is the namespace of the control statement schema
const DefaultNamespace = "https://ekr.financnasprava.sk/Formulare/XSD/kv_dph_2014.xsd"

// statementKindRegular marks a regular (not corrective) statement
const statementKindRegular = "R"

type kvdphDocument struct {
	XMLName       xml.Name
	Identifikacia identifikacia `xml:"Identifikacia"`
	Transakcie    transakcie    `xml:"Transakcie"`
}

type identifikacia struct {
	IcDphPlatitela string  `xml:"IcDphPlatitela"`
	Druh           string  `xml:"Druh"`
	Obdobie        obdobie `xml:"Obdobie"`
	Nazov          string  `xml:"Nazov"`
	Stat           string  `xml:"Stat"`
	Obec           string  `xml:"Obec"`
	PSC            string  `xml:"PSC"`
	Ulica          string  `xml:"Ulica"`
	Cislo          string  `xml:"Cislo"`
	Tel            string  `xml:"Tel"`
	Email          string  `xml:"Email"`
}

type obdobie struct {
	Rok    string `xml:"Rok"`
	Mesiac string `xml:"Mesiac"`
}

type transakcie struct {
	A1 []a1 `xml:"A1"`
	C1 []c1 `xml:"C1"`
	D2 d2   `xml:"D2"`
}

type a1 struct {
	Odb string `xml:"Odb,attr"`
	F   string `xml:"F,attr"`
	Den string `xml:"Den,attr"`
	Z   string `xml:"Z,attr"`
	D   string `xml:"D,attr"`
	S   string `xml:"S,attr"`
}

type c1 struct {
	Odb string `xml:"Odb,attr"`
	FP  string `xml:"FP,attr"`
	FO  string `xml:"FO,attr"`
	Den string `xml:"Den,attr"`
	Z   string `xml:"Z,attr"`
	D   string `xml:"D,attr"`
	S   string `xml:"S,attr"`
}

type d2 struct {
	Z   string `xml:"Z,attr"`
	D   string `xml:"D,attr"`
	ZZn string `xml:"ZZn,attr"`
	DZn string `xml:"DZn,attr"`
}

// XMLRenderer renders the government submission file
type XMLRenderer struct{}

// NewXMLRenderer creates a new XMLRenderer
func NewXMLRenderer() *XMLRenderer {
	return &XMLRenderer{}
}

// Render builds the complete XML document in memory.
func (r *XMLRenderer) Render(model *ReadModel) (*Artifact, error) {
	if model == nil || model.Statement == nil {
		return nil, ErrNilReadModel
	}

	doc := r.build(model)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode statement xml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush statement xml: %w", err)
	}
	buf.WriteByte('\n')

	stmt := model.Statement
	return &Artifact{
		Format:      FormatXML,
		FileName:    XMLFileName(stmt.Year, stmt.Month),
		ContentType: ContentTypeXML,
		Content:     buf.Bytes(),
	}, nil
}

func (r *XMLRenderer) build(model *ReadModel) kvdphDocument {
	stmt := model.Statement
	company := model.Company

	doc := kvdphDocument{
		XMLName: xml.Name{Space: model.Namespace, Local: "KVDPH"},
		Identifikacia: identifikacia{
			IcDphPlatitela: entity.NormalizedVAT(company.VAT, model.DomesticPrefix),
			Druh:           statementKindRegular,
			Obdobie: obdobie{
				Rok:    strconv.Itoa(stmt.Year),
				Mesiac: strconv.Itoa(stmt.Month),
			},
			Nazov: company.Name,
			Stat:  company.Country,
			Obec:  company.City,
			PSC:   company.Zip,
			Ulica: company.Street,
			Cislo: company.StreetNumber,
			Tel:   company.Phone,
			Email: company.Email,
		},
	}

	for _, row := range model.Invoices {
		doc.Transakcie.A1 = append(doc.Transakcie.A1, a1{
			Odb: row.counterpartyVAT(),
			F:   row.Line.DocumentNumber,
			Den: lineDate(row.Line),
			Z:   absAmount(row.Line.BaseAmount),
			D:   absAmount(row.Line.TaxAmount),
			S:   integerRate(row.Line.TaxRate),
		})
	}

	for _, row := range model.Refunds {
		doc.Transakcie.C1 = append(doc.Transakcie.C1, c1{
			Odb: row.counterpartyVAT(),
			FP:  row.Line.DocumentNumber,
			FO:  row.OriginalInvoiceNumber,
			Den: lineDate(row.Line),
			Z:   negativeAmount(row.Line.BaseAmount),
			D:   negativeAmount(row.Line.TaxAmount),
			S:   integerRate(row.Line.TaxRate),
		})
	}

	// Negative net totals are reported as magnitudes in ZZn/DZn.
	base, baseNegative := clampPair(stmt.Totals.NetBase())
	tax, taxNegative := clampPair(stmt.Totals.NetTax())
	doc.Transakcie.D2 = d2{
		Z:   base.StringFixed(2),
		D:   tax.StringFixed(2),
		ZZn: baseNegative.StringFixed(2),
		DZn: taxNegative.StringFixed(2),
	}

	return doc
}

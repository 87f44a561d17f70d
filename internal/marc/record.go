// Package marc reads MARC21 slim XML records and turns them into Works.
//
// Everything that depends on the MARCXML wire format lives behind the
// Accessor interface; the parser only asks for tags and subfield codes.
package marc

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Namespace is the MARC21 slim XML namespace.
const Namespace = "http://www.loc.gov/MARC21/slim"

// Accessor gives tag/subfield access to a bibliographic record.
type Accessor interface {
	// FirstSubfield returns the first non-empty value of subfield code
	// across all datafields with the given tag.
	FirstSubfield(tag, code string) (string, bool)
	// AllSubfields returns the first non-empty value of subfield code from
	// every datafield with the given tag, in record order.
	AllSubfields(tag, code string) []string
	// ControlField returns the raw text of a controlfield.
	ControlField(tag string) (string, bool)
	// Fields returns all datafields with the given tag.
	Fields(tag string) []DataField
}

// Record is a MARC21 slim <record> element.
type Record struct {
	XMLName       xml.Name       `xml:"http://www.loc.gov/MARC21/slim record"`
	Leader        string         `xml:"http://www.loc.gov/MARC21/slim leader"`
	ControlFields []ControlField `xml:"http://www.loc.gov/MARC21/slim controlfield"`
	DataFields    []DataField    `xml:"http://www.loc.gov/MARC21/slim datafield"`
}

type ControlField struct {
	Tag   string `xml:"tag,attr"`
	Value string `xml:",chardata"`
}

type DataField struct {
	Tag       string     `xml:"tag,attr"`
	Ind1      string     `xml:"ind1,attr"`
	Ind2      string     `xml:"ind2,attr"`
	Subfields []Subfield `xml:"http://www.loc.gov/MARC21/slim subfield"`
}

type Subfield struct {
	Code  string `xml:"code,attr"`
	Value string `xml:",chardata"`
}

var _ Accessor = (*Record)(nil)

// Subfield returns the trimmed value of the first subfield with the given
// code. Empty values count as missing.
func (f DataField) Subfield(code string) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code != code {
			continue
		}
		value := strings.TrimSpace(sf.Value)
		return value, value != ""
	}
	return "", false
}

func (r *Record) FirstSubfield(tag, code string) (string, bool) {
	for _, field := range r.DataFields {
		if field.Tag != tag {
			continue
		}
		if value, ok := field.Subfield(code); ok {
			return value, true
		}
	}
	return "", false
}

func (r *Record) AllSubfields(tag, code string) []string {
	var values []string
	for _, field := range r.DataFields {
		if field.Tag != tag {
			continue
		}
		if value, ok := field.Subfield(code); ok {
			values = append(values, value)
		}
	}
	return values
}

func (r *Record) ControlField(tag string) (string, bool) {
	for _, field := range r.ControlFields {
		if field.Tag == tag {
			return field.Value, true
		}
	}
	return "", false
}

func (r *Record) Fields(tag string) []DataField {
	var fields []DataField
	for _, field := range r.DataFields {
		if field.Tag == tag {
			fields = append(fields, field)
		}
	}
	return fields
}

// Decode parses a standalone MARCXML <record> document.
func Decode(data []byte) (*Record, error) {
	var record Record
	if err := xml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode MARC record: %w", err)
	}
	return &record, nil
}

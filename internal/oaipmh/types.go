package oaipmh

import (
	"encoding/xml"
	"strings"

	"github.com/mrlokans/eknihy-sync/internal/marc"
)

// Namespace is the OAI-PMH 2.0 response namespace.
const Namespace = "http://www.openarchives.org/OAI/2.0/"

type envelope struct {
	XMLName      xml.Name     `xml:"http://www.openarchives.org/OAI/2.0/ OAI-PMH"`
	ResponseDate string       `xml:"responseDate"`
	Errors       []errorNode  `xml:"error"`
	ListRecords  *listRecords `xml:"ListRecords"`
	GetRecord    *getRecord   `xml:"GetRecord"`
}

type errorNode struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type listRecords struct {
	Records         []recordNode `xml:"record"`
	ResumptionToken string       `xml:"resumptionToken"`
}

type getRecord struct {
	Record recordNode `xml:"record"`
}

type recordNode struct {
	Header   headerNode   `xml:"header"`
	Metadata metadataNode `xml:"metadata"`
}

type headerNode struct {
	Status     string   `xml:"status,attr"`
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpecs   []string `xml:"setSpec"`
}

type metadataNode struct {
	Record *marc.Record `xml:"http://www.loc.gov/MARC21/slim record"`
}

func (e *envelope) protocolError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	first := e.Errors[0]
	return &ProtocolError{Code: first.Code, Message: strings.TrimSpace(first.Message)}
}

// raw converts a decoded record into parser input. A missing payload stays
// a nil interface so the parser can tell it apart.
func (r recordNode) raw() marc.Raw {
	raw := marc.Raw{
		Identifier: strings.TrimSpace(r.Header.Identifier),
		Deleted:    r.Header.Status == "deleted",
	}
	if r.Metadata.Record != nil {
		raw.Record = r.Metadata.Record
	}
	return raw
}

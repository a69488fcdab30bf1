package veriban

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	soapEnvNS  = "http://schemas.xmlsoap.org/soap/envelope/"
	tempuriNS  = "http://tempuri.org/"
	soapAction = "SOAPAction"
)

// ErrFault is wrapped by errors reported inside a SOAP response.
var ErrFault = errors.New("veriban: soap fault")

// param is one argument of a SOAP operation.
type param struct {
	name  string
	value string
}

func arg(name, value string) param {
	return param{name: name, value: value}
}

// buildEnvelope renders a tempuri.org SOAP 1.1 request for operation.
func buildEnvelope(operation string, params ...param) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", soapEnvNS)
	env.CreateAttr("xmlns:tem", tempuriNS)
	env.CreateElement("soapenv:Header")
	body := env.CreateElement("soapenv:Body")

	op := body.CreateElement("tem:" + operation)
	for _, p := range params {
		op.CreateElement("tem:" + p.name).SetText(p.value)
	}

	return doc.WriteToBytes()
}

// parseResponse reads a SOAP response and converts faults into errors.
func parseResponse(body []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("veriban: parse response: %w", err)
	}
	if msg, ok := faultMessage(doc); ok {
		return nil, fmt.Errorf("%w: %s", ErrFault, msg)
	}
	return doc, nil
}

// faultMessage finds a fault description in either the SOAP or the Veriban fault layout.
func faultMessage(doc *etree.Document) (string, bool) {
	found := false
	for _, path := range []string{"//FaultDescription", "//faultstring", "//FaultCode"} {
		if el := doc.FindElement(path); el != nil {
			found = true
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text, true
			}
		}
	}
	if found || doc.FindElement("//Fault") != nil {
		return "unknown fault", true
	}
	return "", false
}

// text returns the trimmed text of the first element matching path.
func text(doc *etree.Document, path string) string {
	if el := doc.FindElement(path); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// texts returns the trimmed, non-empty texts of all elements matching path.
func texts(doc *etree.Document, path string) []string {
	var out []string
	for _, el := range doc.FindElements(path) {
		if t := strings.TrimSpace(el.Text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}

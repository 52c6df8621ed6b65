package messaging

import (
	"encoding/xml"
	"fmt"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// RenderTwiML wraps a reply body in a TwiML messaging response. Bodies pass
// through XML escaping, so calendar links with query strings stay intact.
func RenderTwiML(body string) (string, error) {
	out, err := xml.Marshal(twimlResponse{Message: body})
	if err != nil {
		return "", fmt.Errorf("messaging: render twiml: %w", err)
	}
	return xmlHeader + string(out), nil
}

package processor

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	nsBPMN    = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	nsZeebe   = "http://camunda.org/schema/zeebe/1.0"
	nsModeler = "http://camunda.org/schema/modeler/1.0"
)

var errNoRootElement = errors.New("document has no root element")

// walkXML streams the elements of contents. visit receives each start element
// together with the id of its nearest ancestor that carries an id attribute.
func walkXML(contents string, visit func(el xml.StartElement, owner string)) error {
	dec := xml.NewDecoder(strings.NewReader(contents))
	var owners []string
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			owner := ""
			if len(owners) > 0 {
				owner = owners[len(owners)-1]
			}
			visit(t, owner)
			if id := attrValue(t, "", "id"); id != "" {
				owner = id
			}
			owners = append(owners, owner)
		case xml.EndElement:
			if len(owners) > 0 {
				owners = owners[:len(owners)-1]
			}
		}
	}
	if !sawRoot {
		return errNoRootElement
	}
	return nil
}

func attrValue(el xml.StartElement, space, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local && a.Name.Space == space {
			return a.Value
		}
	}
	return ""
}

// executionPlatform reads the modeler execution platform attributes of a
// definitions element into extra.
func executionPlatform(el xml.StartElement, extra map[string]any) {
	if v := attrValue(el, nsModeler, "executionPlatform"); v != "" {
		extra["executionPlatform"] = v
	}
	if v := attrValue(el, nsModeler, "executionPlatformVersion"); v != "" {
		extra["executionPlatformVersion"] = v
	}
}

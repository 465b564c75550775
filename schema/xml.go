package schema

import "encoding/xml"

// xmlSchema mirrors the messageSchema root element (spec.md §6). Field
// names follow the attribute/element names the spec names verbatim so the
// mapping to the prose is direct.
type xmlSchema struct {
	XMLName   xml.Name     `xml:"messageSchema"`
	ID        uint16       `xml:"id,attr"`
	Version   uint16       `xml:"version,attr"`
	ByteOrder string       `xml:"byteOrder,attr"`
	Package   string       `xml:"package,attr"`
	Types     xmlTypes     `xml:"types"`
	Messages  []xmlMessage `xml:"message"`
}

type xmlTypes struct {
	Types      []xmlType      `xml:"type"`
	Enums      []xmlEnum      `xml:"enum"`
	Sets       []xmlSet       `xml:"set"`
	Composites []xmlComposite `xml:"composite"`
}

type xmlType struct {
	Name          string `xml:"name,attr"`
	PrimitiveType string `xml:"primitiveType,attr"`
	Length        int    `xml:"length,attr"`
}

type xmlValidValue struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlEnum struct {
	Name          string          `xml:"name,attr"`
	EncodingType  string          `xml:"encodingType,attr"`
	ValidValues   []xmlValidValue `xml:"validValue"`
}

type xmlChoice struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlSet struct {
	Name         string      `xml:"name,attr"`
	EncodingType string      `xml:"encodingType,attr"`
	Choices      []xmlChoice `xml:"choice"`
}

// xmlComposite contains an ordered mix of <type> and <ref> children. A
// composite's field order determines its member offsets (spec.md §3), so
// this type implements xml.Unmarshaler itself to preserve document order
// instead of relying on encoding/xml's per-tag-name grouping.
type xmlComposite struct {
	Name   string
	Fields []xmlCompositeField
}

// xmlCompositeField is one <type> or <ref> child of a <composite>.
type xmlCompositeField struct {
	IsRef         bool
	Name          string
	PrimitiveType string // <type> only
	Length        int    // <type> only
	RefType       string // <ref> only: the referenced type's name
}

func (c *xmlComposite) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Local == "name" {
			c.Name = a.Value
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			field := xmlCompositeField{IsRef: t.Name.Local == "ref"}
			length := 1

			for _, a := range t.Attr {
				switch a.Name.Local {
				case "name":
					field.Name = a.Value
				case "primitiveType":
					field.PrimitiveType = a.Value
				case "type":
					field.RefType = a.Value
				case "length":
					length = atoiOrOne(a.Value)
				}
			}

			field.Length = length

			if err := d.Skip(); err != nil {
				return err
			}

			c.Fields = append(c.Fields, field)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

func atoiOrOne(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return 1
	}

	return n
}

type xmlField struct {
	ID           uint16 `xml:"id,attr"`
	Name         string `xml:"name,attr"`
	Type         string `xml:"type,attr"`
	Offset       *int   `xml:"offset,attr"`
	SinceVersion uint16 `xml:"sinceVersion,attr"`
	Length       int    `xml:"length,attr"`
}

type xmlGroup struct {
	ID            uint16     `xml:"id,attr"`
	Name          string     `xml:"name,attr"`
	BlockLength   int        `xml:"blockLength,attr"`
	SinceVersion  uint16     `xml:"sinceVersion,attr"`
	Fields        []xmlField `xml:"field"`
	Groups        []xmlGroup `xml:"group"`
	Data          []xmlData  `xml:"data"`
}

type xmlData struct {
	Name         string `xml:"name,attr"`
	Type         string `xml:"type,attr"`
	SinceVersion uint16 `xml:"sinceVersion,attr"`
}

type xmlMessage struct {
	ID          uint16     `xml:"id,attr"`
	Name        string     `xml:"name,attr"`
	BlockLength int        `xml:"blockLength,attr"`
	Fields      []xmlField `xml:"field"`
	Groups      []xmlGroup `xml:"group"`
	Data        []xmlData  `xml:"data"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// WordprocessingML element structs. Struct tags carry local names only, so
// any namespace prefix matches.

type tableXML struct {
	Grid tableGridXML `xml:"tblGrid"`
	Rows []rowXML     `xml:"tr"`
}

type tableGridXML struct {
	Cols []struct{} `xml:"gridCol"`
}

type rowXML struct {
	Properties rowPropsXML `xml:"trPr"`
	Cells      []cellXML   `xml:"tc"`
}

type rowPropsXML struct {
	GridBefore *valXML `xml:"gridBefore"`
	GridAfter  *valXML `xml:"gridAfter"`
	Header     *valXML `xml:"tblHeader"`
}

type cellXML struct {
	Properties cellPropsXML   `xml:"tcPr"`
	Paragraphs []paragraphXML `xml:"p"`
}

type cellPropsXML struct {
	GridSpan *valXML `xml:"gridSpan"`
	VMerge   *valXML `xml:"vMerge"`
}

type valXML struct {
	Val string `xml:"val,attr"`
}

// intVal returns the integer value of v, or def when v is absent or not a number.
func (v *valXML) intVal(def int) int {
	if v == nil {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Val))
	if err != nil {
		return def
	}
	return n
}

// onOff interprets an ST_OnOff element: present with no value means on.
func (v *valXML) onOff() bool {
	if v == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v.Val)) {
	case "0", "false", "off":
		return false
	}
	return true
}

// paragraphXML collects the visible text of a w:p in document order.
type paragraphXML struct {
	Text string
}

// UnmarshalXML walks the paragraph's tokens so that text, tabs, and breaks
// keep their relative order across runs.
func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	if err := readRunContainer(d, &b); err != nil {
		return err
	}
	p.Text = b.String()
	return nil
}

// readRunContainer consumes tokens up to the end of the current element,
// taking text from w:r children and from elements that wrap runs.
// Everything else, deleted revisions included, is skipped.
func readRunContainer(d *xml.Decoder, b *strings.Builder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "r":
				err = readRun(d, b)
			case "hyperlink", "ins", "smartTag", "fldSimple", "customXml", "moveTo", "sdt", "sdtContent":
				err = readRunContainer(d, b)
			default:
				err = d.Skip()
			}
			if err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// readRun consumes a w:r element. Only the run's direct content counts;
// text inside drawings and text boxes belongs to other paragraphs.
func readRun(d *xml.Decoder, b *strings.Builder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var s string
				if err := d.DecodeElement(&s, &el); err != nil {
					return err
				}
				b.WriteString(s)
				continue
			case "tab", "ptab":
				b.WriteByte('\t')
			case "cr":
				b.WriteByte('\n')
			case "br":
				// Page and column breaks carry no text.
				if t := attr(el, "type"); t == "" || t == "textWrapping" {
					b.WriteByte('\n')
				}
			case "noBreakHyphen":
				b.WriteByte('-')
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

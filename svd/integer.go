package svd

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Integer is an SVD scaled non-negative integer: decimal, 0x hexadecimal or
// # binary.
type Integer int64

func parse(v string) (int64, error) {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasPrefix(v, "0x"), strings.HasPrefix(v, "0X"):
		return strconv.ParseInt(v[2:], 16, 64)
	case strings.HasPrefix(v, "#"):
		return strconv.ParseInt(v[1:], 2, 64)
	default:
		return strconv.ParseInt(v, 10, 64)
	}
}

func (i *Integer) UnmarshalXML(d *xml.Decoder, start xml.StartElement) (err error) {
	var v string
	if err = d.DecodeElement(&v, &start); err != nil {
		return err
	}

	value, err := parse(v)
	if err != nil {
		return err
	}
	*i = Integer(value)
	return nil
}

func (i *Integer) UnmarshalXMLAttr(attr xml.Attr) (err error) {
	value, err := parse(attr.Value)
	if err != nil {
		return err
	}
	*i = Integer(value)
	return nil
}

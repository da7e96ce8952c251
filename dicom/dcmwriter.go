package dicom

import (
	"encoding/binary"
	"io"

	"github.com/orthancsoft/dicomcodec/dcmerr"
)

type dcmWriter struct {
	io.Writer
}

func (dw *dcmWriter) Tag(order binary.ByteOrder, tag DataElementTag) error {
	if err := dw.UInt16(order, tag.GroupNumber()); err != nil {
		return err
	}
	return dw.UInt16(order, tag.ElementNumber())
}

func (dw *dcmWriter) Delimiter(order binary.ByteOrder, tag DataElementTag) error {
	if err := dw.Tag(order, tag); err != nil {
		return dcmerr.Wrap(dcmerr.InternalError, err, "writing delimiter tag %s", tag)
	}
	if err := dw.UInt32(order, 0); err != nil {
		return dcmerr.Wrap(dcmerr.InternalError, err, "writing item length of delimiter %s", tag)
	}
	return nil
}

func (dw *dcmWriter) UInt16(order binary.ByteOrder, v uint16) error {
	buf := make([]byte, 2)
	order.PutUint16(buf, v)
	return dw.Bytes(buf)
}

func (dw *dcmWriter) UInt32(order binary.ByteOrder, v uint32) error {
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	return dw.Bytes(buf)
}

func (dw *dcmWriter) String(s string) error {
	_, err := dw.Write([]byte(s))
	return err
}

func (dw *dcmWriter) Bytes(b []byte) error {
	_, err := dw.Write(b)
	return err
}

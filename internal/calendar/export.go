package calendar

import (
	"bytes"
	"errors"
	"io"
)

// Export errors.
var (
	ErrAccessNotGranted  = errors.New("calendar access not granted")
	ErrExportUnsupported = errors.New("calendar store cannot export")
	ErrServiceClosed     = errors.New("calendar service closed")
)

// Exporter is implemented by stores that can serialize a calendar.
type Exporter interface {
	WriteCalendar(calendarID string, w io.Writer) error
}

// ExportCalendar returns the default calendar serialized by the store. The
// store is read on the owner goroutine; the caller gets a copy it may write
// out at its own pace.
func (s *Service) ExportCalendar() ([]byte, error) {
	var (
		buf bytes.Buffer
		err error
	)
	ran := s.do(func() {
		if !s.requireAccess("export calendar") {
			err = ErrAccessNotGranted
			return
		}
		calendarID, ok := s.store.DefaultCalendar()
		if !ok {
			err = ErrNoDefaultCalendar
			return
		}
		ex, ok := s.store.(Exporter)
		if !ok {
			err = ErrExportUnsupported
			return
		}
		err = ex.WriteCalendar(calendarID, &buf)
	})
	if !ran {
		return nil, ErrServiceClosed
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
